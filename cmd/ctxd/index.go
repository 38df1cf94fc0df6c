// Package main implements the repository-indexing admin command for the ctxd CLI.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	idxProjectID      string
	idxCollection     string
	idxSubmoduleDepth int
	idxDetectProjects bool
	idxNoIncremental  bool
)

func init() {
	indexCmd.Flags().StringVar(&idxProjectID, "project-id", "", "Project identifier (required)")
	indexCmd.Flags().StringVar(&idxCollection, "collection", "", "Vector store collection override")
	indexCmd.Flags().IntVar(&idxSubmoduleDepth, "submodule-depth", 1, "Maximum submodule recursion depth (0 disables it)")
	indexCmd.Flags().BoolVar(&idxDetectProjects, "detect-projects", true, "Detect ecosystem marker files at root and every visited submodule")
	indexCmd.Flags().BoolVar(&idxNoIncremental, "no-incremental", false, "Reindex every file instead of skipping unchanged ones")
	_ = indexCmd.MarkFlagRequired("project-id")

	rootCmd.AddCommand(indexCmd)
}

// indexCmd drives the repository_index MCP tool over the JSON-RPC/HTTP bridge.
var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository into the memory and context retrieval core",
	Long: `Index walks a repository, chunks and embeds changed files, and records
them in the vector store and memory repository via mcbd's JSON-RPC/HTTP
bridge repository_index tool.

Examples:
  # Index the current directory against a locally running mcbd
  ctxd index --project-id myproject

  # Index a specific path, skipping submodule recursion
  ctxd index --project-id myproject --submodule-depth 0 /path/to/repo

  # Force a full reindex
  ctxd index --project-id myproject --no-incremental .`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

// indexRPCRequest/indexRPCResponse mirror internal/httpbridge.Request/Response,
// kept local to avoid importing an internal package from a separate binary.
type indexRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type indexRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type indexRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *indexRPCError  `json:"error,omitempty"`
}

type indexToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type repositoryIndexArgs struct {
	ProjectID      string `json:"project_id"`
	RepoPath       string `json:"repo_path"`
	Collection     string `json:"collection,omitempty"`
	SubmoduleDepth int    `json:"submodule_depth"`
	DetectProjects bool   `json:"detect_projects"`
	Incremental    bool   `json:"incremental"`
}

type repositoryIndexResult struct {
	Collection   string   `json:"collection"`
	FilesIndexed int      `json:"files_indexed"`
	FilesSkipped int      `json:"files_skipped"`
	Projects     []string `json:"projects,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) == 1 {
		repoPath = args[0]
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}

	toolArgs, err := json.Marshal(repositoryIndexArgs{
		ProjectID:      idxProjectID,
		RepoPath:       absPath,
		Collection:     idxCollection,
		SubmoduleDepth: idxSubmoduleDepth,
		DetectProjects: idxDetectProjects,
		Incremental:    !idxNoIncremental,
	})
	if err != nil {
		return fmt.Errorf("marshal repository_index arguments: %w", err)
	}

	params, err := json.Marshal(indexToolCallParams{Name: "repository_index", Arguments: toolArgs})
	if err != nil {
		return fmt.Errorf("marshal tools/call params: %w", err)
	}

	rpcReq := indexRPCRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("marshal JSON-RPC request: %w", err)
	}

	url := fmt.Sprintf("%s/mcp", serverURL)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Repo-Path", absPath)
	httpReq.Header.Set("X-Project-Id", idxProjectID)

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	var rpcResp indexRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("repository_index failed: %s", rpcResp.Error.Message)
	}

	var result repositoryIndexResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return fmt.Errorf("failed to decode repository_index result: %w", err)
	}

	fmt.Printf("Indexed %q into collection %q\n", absPath, result.Collection)
	fmt.Printf("  Files indexed: %d\n", result.FilesIndexed)
	fmt.Printf("  Files skipped: %d\n", result.FilesSkipped)
	if len(result.Projects) > 0 {
		fmt.Printf("  Detected projects: %v\n", result.Projects)
	}
	fmt.Printf("  Duration: %dms\n", result.DurationMS)

	return nil
}
