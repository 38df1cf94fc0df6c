// internal/config/domain.go
package config

import (
	"fmt"
)

// DatabaseConfig configures the SQLite-backed persistence layer
// (internal/dbexec, internal/memory, internal/entities), added the
// same way QdrantConfig/ChromemConfig are: koanf tags, a Validate
// method, and a Default constructor.
type DatabaseConfig struct {
	// Path is the SQLite database file. Default: ~/.config/contextd/mcb.db
	Path string `koanf:"path"`
}

// DefaultDatabaseConfig returns sensible defaults.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{Path: "~/.config/contextd/mcb.db"}
}

// Validate validates DatabaseConfig.
func (c *DatabaseConfig) Validate() error {
	if err := validatePath(c.Path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return nil
}

// VecStoreConfig selects and configures the internal/vecstore.Store
// adapter (local, qdrant, or pinecone). This is distinct from the
// legacy VectorStoreConfig above, which configures the older
// internal/vectorstore (chromem) stack; the two are kept side by side
// rather than merged, since a merge would force every existing
// chromem/VectorStoreConfig caller to thread through an unrelated
// Pinecone/local-ANN shape.
type VecStoreConfig struct {
	// Provider selects the adapter: "local", "qdrant", or "pinecone".
	// Default: "local" (no external dependency required to start).
	Provider string                 `koanf:"provider"`
	Local    LocalVecStoreConfig    `koanf:"local"`
	Qdrant   QdrantVecStoreConfig   `koanf:"qdrant"`
	Pinecone PineconeVecStoreConfig `koanf:"pinecone"`
}

// DefaultVecStoreConfig returns sensible defaults.
func DefaultVecStoreConfig() VecStoreConfig {
	return VecStoreConfig{
		Provider: "local",
		Local:    LocalVecStoreConfig{Dimensions: 384},
		Qdrant:   QdrantVecStoreConfig{Host: "localhost", Port: 6334, VectorSize: 384},
		Pinecone: PineconeVecStoreConfig{},
	}
}

// Validate validates VecStoreConfig, delegating to whichever adapter
// section Provider selects.
func (c *VecStoreConfig) Validate() error {
	switch c.Provider {
	case "local":
		return c.Local.Validate()
	case "qdrant":
		return c.Qdrant.Validate()
	case "pinecone":
		return c.Pinecone.Validate()
	default:
		return fmt.Errorf("unsupported vecstore provider: %s (supported: local, qdrant, pinecone)", c.Provider)
	}
}

// LocalVecStoreConfig configures the in-process actor-based ANN store
// (internal/vecstore/local). No network endpoint: dimensions are the
// only thing that needs to be known up front.
type LocalVecStoreConfig struct {
	Dimensions int `koanf:"dimensions"`
}

// Validate validates LocalVecStoreConfig.
func (c *LocalVecStoreConfig) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", c.Dimensions)
	}
	return nil
}

// QdrantVecStoreConfig configures the internal/vecstore/qdrant adapter's
// underlying internal/qdrant.GRPCClient.
type QdrantVecStoreConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	UseTLS     bool   `koanf:"use_tls"`
	APIKey     Secret `koanf:"api_key"`
	VectorSize int    `koanf:"vector_size"`
}

// Validate validates QdrantVecStoreConfig.
func (c *QdrantVecStoreConfig) Validate() error {
	if err := validateHostname(c.Host); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("vector_size must be positive, got %d", c.VectorSize)
	}
	return nil
}

// PineconeVecStoreConfig configures the internal/vecstore/pinecone REST
// adapter.
type PineconeVecStoreConfig struct {
	APIKey     Secret `koanf:"api_key"`
	Host       string `koanf:"host"`
	TimeoutSec int    `koanf:"timeout_sec"`
}

// Validate validates PineconeVecStoreConfig.
func (c *PineconeVecStoreConfig) Validate() error {
	if c.Host == "" {
		return nil // unconfigured is valid until the provider is actually selected
	}
	if err := validateURL(c.Host); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	if !c.APIKey.IsSet() {
		return fmt.Errorf("api_key is required when pinecone host is set")
	}
	return nil
}

// HybridConfig holds the Hybrid Retrieval Engine settings loaded from
// MCB_HYBRID_RRF_K and MCB_HYBRID_MAX_RETRIES. They are validated but
// not passed to hybrid.New: the engine (internal/hybrid) uses its own
// fixed k of 60 and at most 3 fetch attempts.
type HybridConfig struct {
	// RRFK is Reciprocal Rank Fusion's smoothing constant. Default: 60.
	RRFK float64 `koanf:"rrf_k"`

	// MaxRetries bounds the over-fetch retry loop when too few candidates
	// survive post-fetch filtering. Default: 3.
	MaxRetries int `koanf:"max_retries"`
}

// DefaultHybridConfig returns sensible defaults.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{RRFK: 60.0, MaxRetries: 3}
}

// Validate validates HybridConfig.
func (c *HybridConfig) Validate() error {
	if c.RRFK <= 0 {
		return fmt.Errorf("rrf_k must be positive, got %f", c.RRFK)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	return nil
}

// McpBridgeConfig configures internal/httpbridge's JSON-RPC-over-HTTP
// transport, which cmd/mcbd runs alongside the stdio MCP transport.
type McpBridgeConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// DefaultMcpBridgeConfig returns sensible defaults.
func DefaultMcpBridgeConfig() McpBridgeConfig {
	return McpBridgeConfig{Enabled: true, Host: "localhost", Port: 9091}
}

// Validate validates McpBridgeConfig.
func (c *McpBridgeConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validateHostname(c.Host); err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	return nil
}
