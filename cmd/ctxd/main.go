// Package main implements the ctxd CLI for manual operations against the
// mcbd JSON-RPC/HTTP bridge.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the mcbd HTTP bridge.
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ctxd",
	Short: "CLI for mcbd bridge operations",
	Long: `ctxd is a command-line interface for interacting with mcbd, the memory
and context retrieval daemon. It provides commands for indexing repositories,
checking daemon health, and managing the Claude Code MCP registration.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9091", "mcbd bridge URL")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks bridge health.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check mcbd bridge health",
	Long: `Check the health status of the mcbd JSON-RPC/HTTP bridge.

Examples:
  # Check health
  ctxd health

  # Check health on a different server
  ctxd health --server http://localhost:9091`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/healthz", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("failed to read response body: %w", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("Server Status: %s\n", string(body))
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
