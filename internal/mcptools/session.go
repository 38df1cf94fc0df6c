package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/provenance"
)

// ===== session.create =====

type SessionCreateInput struct {
	ProjectID       string            `json:"project_id" jsonschema:"required,Project identifier"`
	SessionID       string            `json:"session_id,omitempty" jsonschema:"Caller-supplied session id (generated if omitted)"`
	ParentSessionID string            `json:"parent_session_id,omitempty" jsonschema:"Parent session id, if this is a delegated sub-session"`
	AgentProgram    string            `json:"agent_program" jsonschema:"required,Name of the agent program/CLI running this session"`
	ModelID         string            `json:"model_id" jsonschema:"required,Model identifier in use"`
	OperatorID      string            `json:"operator_id,omitempty" jsonschema:"Human operator identifier"`
	MachineID       string            `json:"machine_id,omitempty" jsonschema:"Host/machine identifier"`
	Data            dataPayload       `json:"data,omitempty" jsonschema:"Fallback fields for clients that send context as a side map instead of top-level arguments"`
}

type SessionCreateOutput struct {
	SessionID string `json:"session_id"`
}

// CreateSession resolves project_id/session_id/parent_session_id against
// both the typed fields and the data fallback map (provenance's
// args-vs-payload precedence), namespaces identifiers via
// provenance.CorrelateID, and persists the session.
func (t *Tools) CreateSession(ctx context.Context, in SessionCreateInput) (SessionCreateOutput, error) {
	projectID, err := requireField("project_id", in.ProjectID, in.Data, "project_id is required")
	if err != nil {
		return SessionCreateOutput{}, err
	}
	if in.AgentProgram == "" {
		return SessionCreateOutput{}, mcberrors.InvalidParams("agent_program is required")
	}
	if in.ModelID == "" {
		return SessionCreateOutput{}, mcberrors.InvalidParams("model_id is required")
	}

	rawSessionID := in.SessionID
	if rawSessionID == "" {
		rawSessionID = newID("agent")
	}
	sessionID := provenance.CorrelateID("session", rawSessionID)

	var parentSessionID *string
	if raw, err := resolveField("parent_session_id", in.ParentSessionID, in.Data); err != nil {
		return SessionCreateOutput{}, err
	} else if raw != "" {
		correlated := provenance.CorrelateID("parent_session", raw)
		parentSessionID = &correlated
	}

	session := entities.AgentSession{
		ID:              newID("asess"),
		ProjectID:       projectID,
		SessionID:       sessionID,
		ParentSessionID: parentSessionID,
		AgentProgram:    in.AgentProgram,
		ModelID:         in.ModelID,
		OperatorID:      optStringIfSet(in.OperatorID),
		MachineID:       optStringIfSet(in.MachineID),
		StartedAt:       t.nowUnix(),
	}
	if err := t.agents.CreateSession(ctx, session); err != nil {
		return SessionCreateOutput{}, err
	}
	return SessionCreateOutput{SessionID: sessionID}, nil
}

func optStringIfSet(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ===== session.end =====

type SessionEndInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Session identifier to end"`
}

type SessionEndOutput struct {
	Ended bool `json:"ended"`
}

func (t *Tools) EndSession(ctx context.Context, in SessionEndInput) (SessionEndOutput, error) {
	if in.SessionID == "" {
		return SessionEndOutput{}, mcberrors.InvalidParams("session_id is required")
	}
	if err := t.agents.EndSession(ctx, provenance.CorrelateID("session", in.SessionID), t.nowUnix()); err != nil {
		return SessionEndOutput{}, err
	}
	return SessionEndOutput{Ended: true}, nil
}

// ===== session.list =====

type SessionListInput struct {
	ProjectID       string `json:"project_id" jsonschema:"required,Project identifier"`
	ParentSessionID string `json:"parent_session_id,omitempty" jsonschema:"Filter by parent session"`
	AgentProgram    string `json:"agent_program,omitempty" jsonschema:"Filter by agent program"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 20)"`
}

type SessionListOutput struct {
	Sessions []entities.AgentSession `json:"sessions"`
}

func (t *Tools) ListSessions(ctx context.Context, in SessionListInput) (SessionListOutput, error) {
	if in.ProjectID == "" {
		return SessionListOutput{}, mcberrors.InvalidParams("project_id is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	sessions, err := t.agents.ListSessions(ctx, entities.AgentSessionQuery{
		ProjectID:       in.ProjectID,
		ParentSessionID: in.ParentSessionID,
		AgentProgram:    in.AgentProgram,
		Limit:           limit,
	})
	if err != nil {
		return SessionListOutput{}, err
	}
	return SessionListOutput{Sessions: sessions}, nil
}

// ===== delegation.record =====

type DelegationRecordInput struct {
	ParentSessionID string `json:"parent_session_id" jsonschema:"required,Delegating session id"`
	ChildSessionID  string `json:"child_session_id" jsonschema:"required,Delegated session id"`
	ToolName        string `json:"tool_name,omitempty" jsonschema:"Name of the tool used to delegate"`
}

type DelegationRecordOutput struct {
	ID string `json:"id"`
}

func (t *Tools) RecordDelegation(ctx context.Context, in DelegationRecordInput) (DelegationRecordOutput, error) {
	if in.ParentSessionID == "" || in.ChildSessionID == "" {
		return DelegationRecordOutput{}, mcberrors.InvalidParams("parent_session_id and child_session_id are required")
	}
	d := entities.Delegation{
		ID:              newID("deleg"),
		ParentSessionID: provenance.CorrelateID("session", in.ParentSessionID),
		ChildSessionID:  provenance.CorrelateID("session", in.ChildSessionID),
		ToolName:        optStringIfSet(in.ToolName),
		CreatedAt:       t.nowUnix(),
	}
	if err := t.agents.StoreDelegation(ctx, d); err != nil {
		return DelegationRecordOutput{}, err
	}
	return DelegationRecordOutput{ID: d.ID}, nil
}

// ===== tool_call.record =====

type ToolCallRecordInput struct {
	SessionID string  `json:"session_id" jsonschema:"required,Session this call belongs to"`
	ToolName  string  `json:"tool_name" jsonschema:"required,Name of the tool invoked"`
	Params    string  `json:"params,omitempty" jsonschema:"JSON-encoded params"`
	Result    *string `json:"result,omitempty" jsonschema:"JSON-encoded result"`
}

type ToolCallRecordOutput struct {
	ID string `json:"id"`
}

func (t *Tools) RecordToolCall(ctx context.Context, in ToolCallRecordInput) (ToolCallRecordOutput, error) {
	if in.SessionID == "" || in.ToolName == "" {
		return ToolCallRecordOutput{}, mcberrors.InvalidParams("session_id and tool_name are required")
	}
	call := entities.ToolCall{
		ID:        newID("tc"),
		SessionID: provenance.CorrelateID("session", in.SessionID),
		ToolName:  in.ToolName,
		Params:    in.Params,
		Result:    in.Result,
		CreatedAt: t.nowUnix(),
	}
	if err := t.agents.StoreToolCall(ctx, call); err != nil {
		return ToolCallRecordOutput{}, err
	}
	return ToolCallRecordOutput{ID: call.ID}, nil
}

// ===== agent_checkpoint.save / .get / .list / .delete =====
//
// These wrap internal/entities' Checkpoint CRUD (tied to an agent
// session row) and are distinct from internal/checkpoint's richer
// context-folding checkpoint service: this one is the schema-level
// "save a labeled snapshot under this session" primitive.

type AgentCheckpointSaveInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Session identifier"`
	Label     string `json:"label" jsonschema:"required,Short label for this checkpoint"`
	Snapshot  string `json:"snapshot" jsonschema:"required,Opaque snapshot payload"`
}

type AgentCheckpointSaveOutput struct {
	ID string `json:"id"`
}

func (t *Tools) SaveAgentCheckpoint(ctx context.Context, in AgentCheckpointSaveInput) (AgentCheckpointSaveOutput, error) {
	if in.SessionID == "" || in.Label == "" {
		return AgentCheckpointSaveOutput{}, mcberrors.InvalidParams("session_id and label are required")
	}
	cp := entities.Checkpoint{
		ID:        newID("cp"),
		SessionID: provenance.CorrelateID("session", in.SessionID),
		Label:     in.Label,
		Snapshot:  in.Snapshot,
		CreatedAt: t.nowUnix(),
	}
	if err := t.agents.StoreCheckpoint(ctx, cp); err != nil {
		return AgentCheckpointSaveOutput{}, err
	}
	return AgentCheckpointSaveOutput{ID: cp.ID}, nil
}

type AgentCheckpointGetInput struct {
	ID string `json:"id" jsonschema:"required,Checkpoint id"`
}

type AgentCheckpointGetOutput struct {
	Checkpoint *entities.Checkpoint `json:"checkpoint"`
}

func (t *Tools) GetAgentCheckpoint(ctx context.Context, in AgentCheckpointGetInput) (AgentCheckpointGetOutput, error) {
	if in.ID == "" {
		return AgentCheckpointGetOutput{}, mcberrors.InvalidParams("id is required")
	}
	cp, err := t.agents.GetCheckpoint(ctx, in.ID)
	if err != nil {
		return AgentCheckpointGetOutput{}, err
	}
	return AgentCheckpointGetOutput{Checkpoint: cp}, nil
}

type AgentCheckpointListInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Session identifier"`
}

type AgentCheckpointListOutput struct {
	Checkpoints []entities.Checkpoint `json:"checkpoints"`
}

func (t *Tools) ListAgentCheckpoints(ctx context.Context, in AgentCheckpointListInput) (AgentCheckpointListOutput, error) {
	if in.SessionID == "" {
		return AgentCheckpointListOutput{}, mcberrors.InvalidParams("session_id is required")
	}
	cps, err := t.agents.ListCheckpoints(ctx, provenance.CorrelateID("session", in.SessionID))
	if err != nil {
		return AgentCheckpointListOutput{}, err
	}
	return AgentCheckpointListOutput{Checkpoints: cps}, nil
}

type AgentCheckpointDeleteInput struct {
	ID string `json:"id" jsonschema:"required,Checkpoint id"`
}

type AgentCheckpointDeleteOutput struct {
	Deleted bool `json:"deleted"`
}

func (t *Tools) DeleteAgentCheckpoint(ctx context.Context, in AgentCheckpointDeleteInput) (AgentCheckpointDeleteOutput, error) {
	if in.ID == "" {
		return AgentCheckpointDeleteOutput{}, mcberrors.InvalidParams("id is required")
	}
	if err := t.agents.DeleteCheckpoint(ctx, in.ID); err != nil {
		return AgentCheckpointDeleteOutput{}, err
	}
	return AgentCheckpointDeleteOutput{Deleted: true}, nil
}

func (t *Tools) registerSessionTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "session_create",
		Description: "Create an agent session row, optionally nested under a parent session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SessionCreateInput) (*mcp.CallToolResult, SessionCreateOutput, error) {
		out, err := t.CreateSession(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "session_end",
		Description: "Mark an agent session as ended.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SessionEndInput) (*mcp.CallToolResult, SessionEndOutput, error) {
		out, err := t.EndSession(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "session_list",
		Description: "List agent sessions for a project, optionally filtered by parent session or agent program.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SessionListInput) (*mcp.CallToolResult, SessionListOutput, error) {
		out, err := t.ListSessions(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "delegation_record",
		Description: "Record a parent-to-child session delegation.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args DelegationRecordInput) (*mcp.CallToolResult, DelegationRecordOutput, error) {
		out, err := t.RecordDelegation(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "tool_call_record",
		Description: "Record a tool invocation under a session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ToolCallRecordInput) (*mcp.CallToolResult, ToolCallRecordOutput, error) {
		out, err := t.RecordToolCall(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "agent_checkpoint_save",
		Description: "Save a labeled checkpoint snapshot under a session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AgentCheckpointSaveInput) (*mcp.CallToolResult, AgentCheckpointSaveOutput, error) {
		out, err := t.SaveAgentCheckpoint(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "agent_checkpoint_get",
		Description: "Fetch a checkpoint by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AgentCheckpointGetInput) (*mcp.CallToolResult, AgentCheckpointGetOutput, error) {
		out, err := t.GetAgentCheckpoint(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "agent_checkpoint_list",
		Description: "List checkpoints for a session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AgentCheckpointListInput) (*mcp.CallToolResult, AgentCheckpointListOutput, error) {
		out, err := t.ListAgentCheckpoints(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "agent_checkpoint_delete",
		Description: "Delete a checkpoint by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AgentCheckpointDeleteInput) (*mcp.CallToolResult, AgentCheckpointDeleteOutput, error) {
		out, err := t.DeleteAgentCheckpoint(ctx, args)
		return nil, out, err
	})
}
