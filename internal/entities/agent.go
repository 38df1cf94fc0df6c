// Package entities provides CRUD repositories over the tracking tables
// that sit alongside the memory/vector core: agent session lineage,
// the project issue tracker, VCS bookkeeping, planning artifacts, and
// recurring error patterns. Each repository is a thin dbexec.Executor
// wrapper in the same style as internal/memory's Store.
package entities

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// AgentSession is one tracked agent invocation, optionally delegated
// from a parent session.
type AgentSession struct {
	ID              string
	ProjectID       string
	SessionID       string
	ParentSessionID *string
	AgentProgram    string
	ModelID         string
	OperatorID      *string
	MachineID       *string
	StartedAt       int64
	EndedAt         *int64
}

// Delegation records a parent session handing work to a child session.
type Delegation struct {
	ID              string
	ParentSessionID string
	ChildSessionID  string
	ToolName        *string
	CreatedAt       int64
}

// ToolCall records one MCP tool invocation within a session.
type ToolCall struct {
	ID        string
	SessionID string
	ToolName  string
	Params    string
	Result    *string
	CreatedAt int64
}

// Checkpoint is a named, resumable snapshot of session state.
type Checkpoint struct {
	ID        string
	SessionID string
	Label     string
	Snapshot  string
	CreatedAt int64
}

// AgentSessionQuery filters ListSessions; zero-valued fields are not applied.
type AgentSessionQuery struct {
	ProjectID       string
	ParentSessionID string
	AgentProgram    string
	Limit           int
}

// AgentRepository is the port over agent_sessions, delegations,
// tool_calls, and checkpoints.
type AgentRepository interface {
	CreateSession(ctx context.Context, s AgentSession) error
	GetSession(ctx context.Context, id string) (*AgentSession, error)
	EndSession(ctx context.Context, id string, endedAt int64) error
	ListSessions(ctx context.Context, q AgentSessionQuery) ([]AgentSession, error)

	StoreDelegation(ctx context.Context, d Delegation) error
	ListDelegations(ctx context.Context, parentSessionID string) ([]Delegation, error)

	StoreToolCall(ctx context.Context, t ToolCall) error
	ListToolCalls(ctx context.Context, sessionID string) ([]ToolCall, error)

	StoreCheckpoint(ctx context.Context, c Checkpoint) error
	GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error)
	ListCheckpoints(ctx context.Context, sessionID string) ([]Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, id string) error
}

// AgentStore is the SQLite-backed AgentRepository implementation.
type AgentStore struct {
	exec dbexec.Executor
}

// NewAgentStore builds an AgentStore over exec.
func NewAgentStore(exec dbexec.Executor) *AgentStore { return &AgentStore{exec: exec} }

var _ AgentRepository = (*AgentStore)(nil)

func nullableParam(v *string) dbexec.Param {
	if v == nil {
		return dbexec.Null()
	}
	return dbexec.String(*v)
}

func nullableInt(v *int64) dbexec.Param {
	if v == nil {
		return dbexec.Null()
	}
	return dbexec.Int64(*v)
}

func optString(row dbexec.Row, col string) (*string, error) {
	v, ok, err := row.TryGetString(col)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func optInt64(row dbexec.Row, col string) (*int64, error) {
	v, ok, err := row.TryGetInt64(col)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (s *AgentStore) CreateSession(ctx context.Context, a AgentSession) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO agent_sessions (id, project_id, session_id, parent_session_id, agent_program, model_id, operator_id, machine_id, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(a.ID), dbexec.String(a.ProjectID), dbexec.String(a.SessionID),
			nullableParam(a.ParentSessionID), dbexec.String(a.AgentProgram), dbexec.String(a.ModelID),
			nullableParam(a.OperatorID), nullableParam(a.MachineID), dbexec.Int64(a.StartedAt), nullableInt(a.EndedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create agent session", err)
	}
	return nil
}

func rowToAgentSession(row dbexec.Row) (*AgentSession, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "scan agent session id", err)
	}
	projectID, _, err := row.TryGetString("project_id")
	if err != nil {
		return nil, err
	}
	sessionID, _, err := row.TryGetString("session_id")
	if err != nil {
		return nil, err
	}
	parentSessionID, err := optString(row, "parent_session_id")
	if err != nil {
		return nil, err
	}
	agentProgram, _, err := row.TryGetString("agent_program")
	if err != nil {
		return nil, err
	}
	modelID, _, err := row.TryGetString("model_id")
	if err != nil {
		return nil, err
	}
	operatorID, err := optString(row, "operator_id")
	if err != nil {
		return nil, err
	}
	machineID, err := optString(row, "machine_id")
	if err != nil {
		return nil, err
	}
	startedAt, _, err := row.TryGetInt64("started_at")
	if err != nil {
		return nil, err
	}
	endedAt, err := optInt64(row, "ended_at")
	if err != nil {
		return nil, err
	}
	return &AgentSession{
		ID: id, ProjectID: projectID, SessionID: sessionID, ParentSessionID: parentSessionID,
		AgentProgram: agentProgram, ModelID: modelID, OperatorID: operatorID, MachineID: machineID,
		StartedAt: startedAt, EndedAt: endedAt,
	}, nil
}

func (s *AgentStore) GetSession(ctx context.Context, id string) (*AgentSession, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM agent_sessions WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get agent session", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToAgentSession(row)
}

func (s *AgentStore) EndSession(ctx context.Context, id string, endedAt int64) error {
	_, err := s.exec.Execute(ctx, "UPDATE agent_sessions SET ended_at = ? WHERE id = ?",
		[]dbexec.Param{dbexec.Int64(endedAt), dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "end agent session", err)
	}
	return nil
}

// ListSessions builds its WHERE clause with squirrel since the filter
// set is optional and combinatorial; every other query here has a
// fixed shape and stays as a plain literal per internal/memory's style.
func (s *AgentStore) ListSessions(ctx context.Context, q AgentSessionQuery) ([]AgentSession, error) {
	builder := sq.Select("*").From("agent_sessions")
	if q.ProjectID != "" {
		builder = builder.Where(sq.Eq{"project_id": q.ProjectID})
	}
	if q.ParentSessionID != "" {
		builder = builder.Where(sq.Eq{"parent_session_id": q.ParentSessionID})
	}
	if q.AgentProgram != "" {
		builder = builder.Where(sq.Eq{"agent_program": q.AgentProgram})
	}
	builder = builder.OrderBy("started_at DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "build list sessions query", err)
	}
	params := make([]dbexec.Param, len(args))
	for i, a := range args {
		params[i] = toParam(a)
	}

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list agent sessions", err)
	}
	out := make([]AgentSession, 0, len(rows))
	for _, row := range rows {
		session, err := rowToAgentSession(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *session)
	}
	return out, nil
}

// toParam converts a squirrel bind argument (always one of string/int64/
// bool/nil given this package only ever builds Eq/Limit clauses) into
// a dbexec.Param.
func toParam(v any) dbexec.Param {
	switch t := v.(type) {
	case string:
		return dbexec.String(t)
	case int64:
		return dbexec.Int64(t)
	case int:
		return dbexec.Int64(int64(t))
	case bool:
		return dbexec.Bool(t)
	case nil:
		return dbexec.Null()
	default:
		return dbexec.String(fmt.Sprintf("%v", t))
	}
}

func (s *AgentStore) StoreDelegation(ctx context.Context, d Delegation) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO delegations (id, parent_session_id, child_session_id, tool_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(d.ID), dbexec.String(d.ParentSessionID), dbexec.String(d.ChildSessionID),
			nullableParam(d.ToolName), dbexec.Int64(d.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "store delegation", err)
	}
	return nil
}

func (s *AgentStore) ListDelegations(ctx context.Context, parentSessionID string) ([]Delegation, error) {
	rows, err := s.exec.QueryAll(ctx,
		"SELECT * FROM delegations WHERE parent_session_id = ? ORDER BY created_at ASC",
		[]dbexec.Param{dbexec.String(parentSessionID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list delegations", err)
	}
	out := make([]Delegation, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		parentID, _, err := row.TryGetString("parent_session_id")
		if err != nil {
			return nil, err
		}
		childID, _, err := row.TryGetString("child_session_id")
		if err != nil {
			return nil, err
		}
		toolName, err := optString(row, "tool_name")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, Delegation{ID: id, ParentSessionID: parentID, ChildSessionID: childID, ToolName: toolName, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *AgentStore) StoreToolCall(ctx context.Context, t ToolCall) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO tool_calls (id, session_id, tool_name, params, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(t.ID), dbexec.String(t.SessionID), dbexec.String(t.ToolName),
			dbexec.String(t.Params), nullableParam(t.Result), dbexec.Int64(t.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "store tool call", err)
	}
	return nil
}

func (s *AgentStore) ListToolCalls(ctx context.Context, sessionID string) ([]ToolCall, error) {
	rows, err := s.exec.QueryAll(ctx,
		"SELECT * FROM tool_calls WHERE session_id = ? ORDER BY created_at ASC",
		[]dbexec.Param{dbexec.String(sessionID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list tool calls", err)
	}
	out := make([]ToolCall, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		sid, _, err := row.TryGetString("session_id")
		if err != nil {
			return nil, err
		}
		toolName, _, err := row.TryGetString("tool_name")
		if err != nil {
			return nil, err
		}
		params, _, err := row.TryGetString("params")
		if err != nil {
			return nil, err
		}
		result, err := optString(row, "result")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, ToolCall{ID: id, SessionID: sid, ToolName: toolName, Params: params, Result: result, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *AgentStore) StoreCheckpoint(ctx context.Context, c Checkpoint) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO checkpoints (id, session_id, label, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(c.ID), dbexec.String(c.SessionID), dbexec.String(c.Label),
			dbexec.String(c.Snapshot), dbexec.Int64(c.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "store checkpoint", err)
	}
	return nil
}

func (s *AgentStore) GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM checkpoints WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get checkpoint", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToCheckpoint(row)
}

func rowToCheckpoint(row dbexec.Row) (*Checkpoint, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	sessionID, _, err := row.TryGetString("session_id")
	if err != nil {
		return nil, err
	}
	label, _, err := row.TryGetString("label")
	if err != nil {
		return nil, err
	}
	snapshot, _, err := row.TryGetString("snapshot")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	return &Checkpoint{ID: id, SessionID: sessionID, Label: label, Snapshot: snapshot, CreatedAt: createdAt}, nil
}

func (s *AgentStore) ListCheckpoints(ctx context.Context, sessionID string) ([]Checkpoint, error) {
	rows, err := s.exec.QueryAll(ctx,
		"SELECT * FROM checkpoints WHERE session_id = ? ORDER BY created_at DESC",
		[]dbexec.Param{dbexec.String(sessionID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list checkpoints", err)
	}
	out := make([]Checkpoint, 0, len(rows))
	for _, row := range rows {
		cp, err := rowToCheckpoint(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	return out, nil
}

func (s *AgentStore) DeleteCheckpoint(ctx context.Context, id string) error {
	_, err := s.exec.Execute(ctx, "DELETE FROM checkpoints WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "delete checkpoint", err)
	}
	return nil
}
