package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIndexSendsToolsCall(t *testing.T) {
	var gotReq indexRPCRequest
	var gotParams indexToolCallParams
	var gotArgs repositoryIndexArgs

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mcp", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.Unmarshal(gotReq.Params, &gotParams))
		require.NoError(t, json.Unmarshal(gotParams.Arguments, &gotArgs))

		result, _ := json.Marshal(repositoryIndexResult{
			Collection:   "proj_memories",
			FilesIndexed: 3,
			FilesSkipped: 1,
			DurationMS:   42,
		})
		resp := indexRPCResponse{JSONRPC: "2.0", ID: gotReq.ID, Result: result}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oldServerURL := serverURL
	serverURL = server.URL
	defer func() { serverURL = oldServerURL }()

	oldProjectID, oldDepth, oldDetect, oldNoIncr := idxProjectID, idxSubmoduleDepth, idxDetectProjects, idxNoIncremental
	idxProjectID = "proj"
	idxSubmoduleDepth = 2
	idxDetectProjects = true
	idxNoIncremental = false
	defer func() {
		idxProjectID, idxSubmoduleDepth, idxDetectProjects, idxNoIncremental = oldProjectID, oldDepth, oldDetect, oldNoIncr
	}()

	err := runIndex(&cobra.Command{}, []string{t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "tools/call", gotReq.Method)
	assert.Equal(t, "repository_index", gotParams.Name)
	assert.Equal(t, "proj", gotArgs.ProjectID)
	assert.Equal(t, 2, gotArgs.SubmoduleDepth)
	assert.True(t, gotArgs.Incremental)
	assert.NotEmpty(t, gotArgs.RepoPath)
}

func TestRunIndexPropagatesRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := indexRPCResponse{JSONRPC: "2.0", ID: 1, Error: &indexRPCError{Code: -32000, Message: "indexing is not configured for this server"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oldServerURL := serverURL
	serverURL = server.URL
	defer func() { serverURL = oldServerURL }()

	oldProjectID := idxProjectID
	idxProjectID = "proj"
	defer func() { idxProjectID = oldProjectID }()

	err := runIndex(&cobra.Command{}, []string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing is not configured")
}
