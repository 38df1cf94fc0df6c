package mcptools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/hybrid"
	"github.com/marlonsc/mcb/internal/indexing"
	"github.com/marlonsc/mcb/internal/memory"
	"github.com/marlonsc/mcb/internal/provenance"
)

// Tools holds the dependencies every registered tool adapts: the memory
// repository and hybrid engine for the memory.* tools, the entity
// stores built in internal/entities for session.*, issue_entity.*,
// vcs_entity.*, and project.* tools, and the indexing service for
// repository.* tools. A *mcp.Server is supplied separately to
// RegisterAll so Tools itself stays usable in tests that never touch
// the SDK transport.
type Tools struct {
	memRepo memory.Repository
	engine  *hybrid.Engine
	agents  entities.AgentRepository
	issues  entities.IssueRepository
	vcs     entities.VCSRepository
	tenants entities.TenantRepository
	indexer *indexing.Service
	logger  *zap.Logger
	now     func() time.Time
}

// New builds a Tools over the repository interfaces internal/entities
// defines (AgentStore/IssueStore/VCSStore/TenantStore satisfy these),
// so tests can substitute lightweight stubs without a database.
// logger may be nil, in which case a no-op logger is used. indexer may
// be nil, in which case the repository_index tool reports indexing as
// unavailable rather than panicking.
func New(memRepo memory.Repository, engine *hybrid.Engine, agents entities.AgentRepository, issues entities.IssueRepository, vcs entities.VCSRepository, tenants entities.TenantRepository, indexer *indexing.Service, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{
		memRepo: memRepo,
		engine:  engine,
		agents:  agents,
		issues:  issues,
		vcs:     vcs,
		tenants: tenants,
		indexer: indexer,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterAll registers every tool group against mcpServer, matching
// internal/mcp.Server.registerTools' one-method-per-group shape.
func (t *Tools) RegisterAll(mcpServer *mcp.Server) {
	t.registerMemoryTools(mcpServer)
	t.registerSessionTools(mcpServer)
	t.registerIssueTools(mcpServer)
	t.registerVCSTools(mcpServer)
	t.registerTenantTools(mcpServer)
	t.registerIndexingTools(mcpServer)
}

func (t *Tools) nowUnix() int64 { return t.now().Unix() }

// hashContent derives an observation's dedup key, matching
// internal/filehash's sha256-hex approach applied to in-memory content
// rather than a file stream.
func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

// dataPayload is the optional secondary source a provenance field can
// be resolved from, mirroring the original's args-vs-data_payload
// duality (SessionArgs.data, IssueEntityArgs.data) for callers that
// still send context as a side map rather than top-level fields.
type dataPayload map[string]string

func resolveField(field, argVal string, data dataPayload) (string, error) {
	return provenance.ResolveField(field, argVal, data[field])
}

func requireField(field, argVal string, data dataPayload, requiredMsg string) (string, error) {
	return provenance.RequireResolvedField(field, argVal, data[field], requiredMsg)
}

// marshalMetadata is a small convenience used by the memory tools to
// accept metadata as a generic map and store it alongside an
// Observation, matching memory.Observation.Metadata's map[string]any shape.
func marshalMetadata(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// toolLogger returns a context-scoped logger, matching the teacher's
// practice of not threading *zap.Logger through every call explicitly.
func (t *Tools) toolLogger(ctx context.Context, tool string) *zap.Logger {
	return t.logger.With(zap.String("tool", tool))
}
