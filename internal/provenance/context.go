// Package provenance resolves a tool call's origin — project, session,
// repository, operator, and execution identity — from the two sources
// a call can carry them in (inline arguments and a structured data
// payload, plus HTTP header fields over the bridge transport), per a
// fixed precedence rule: agree or absent-on-one-side wins, disagreement
// is an invalid_params error naming the field.
package provenance

import (
	"strconv"
	"strings"
	"time"

	"github.com/marlonsc/mcb/internal/mcberrors"
)

// Context is the fully resolved provenance for one tool call.
type Context struct {
	OrgID           string
	ProjectID       string
	SessionID       string
	ParentSessionID string
	RepoID          string
	RepoPath        string
	WorktreeID      string
	Branch          string
	Commit          string
	OperatorID      string
	MachineID       string
	AgentProgram    string
	ModelID         string
	Delegated       *bool
	ExecutionID     string
	ToolName        string
	FilePath        string
	Timestamp       int64
}

// Input carries the args/payload pair for every resolvable field, plus
// resolution controls (org_id has no payload side: it is either
// explicit or defaulted).
type Input struct {
	OrgID string

	ProjectIDArgs, ProjectIDPayload             string
	SessionIDArgs, SessionIDPayload             string
	ParentSessionIDArgs, ParentSessionIDPayload string
	RepoIDArgs, RepoIDPayload                   string
	RepoPathArgs, RepoPathPayload               string
	WorktreeIDArgs, WorktreeIDPayload           string
	BranchArgs, BranchPayload                   string
	CommitArgs, CommitPayload                   string
	OperatorIDArgs, OperatorIDPayload           string
	MachineIDArgs, MachineIDPayload             string
	AgentProgramArgs, AgentProgramPayload       string
	ModelIDArgs, ModelIDPayload                 string
	ExecutionIDArgs, ExecutionIDPayload         string
	ToolNameArgs, ToolNamePayload                string
	FilePathArgs, FilePathPayload               string

	DelegatedArgs, DelegatedPayload *bool

	RequireProjectID bool
	// Timestamp overrides the resolved timestamp; zero means "use now".
	Timestamp int64

	// Now is injectable for deterministic tests; nil uses time.Now.
	Now func() time.Time
}

// defaultOrgID is used when Input.OrgID is empty, matching the
// original's OrgContext::default() fallback.
const defaultOrgID = "default"

// CorrelateID namespaces an identifier so values from different
// namespaces (e.g. two distinct sessions that happen to share a raw
// id) never collide once stored. The scheme is a fixed, documented
// format rather than a hash: callers and logs can read it back.
func CorrelateID(namespace, value string) string {
	return namespace + ":" + value
}

// ResolveField applies the args/payload precedence rule for one field:
// trim both, treat empty as absent, error on disagreement.
func ResolveField(field, argsValue, payloadValue string) (string, error) {
	args := normalize(argsValue)
	payload := normalize(payloadValue)

	if args != "" && payload != "" && args != payload {
		return "", mcberrors.InvalidParams("conflicting " + field + " between args and data")
	}
	if args != "" {
		return args, nil
	}
	return payload, nil
}

// RequireResolvedField resolves field and errors with requiredMsg if
// both sides were absent.
func RequireResolvedField(field, argsValue, payloadValue, requiredMsg string) (string, error) {
	v, err := ResolveField(field, argsValue, payloadValue)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", mcberrors.InvalidParams(requiredMsg)
	}
	return v, nil
}

func normalize(v string) string { return strings.TrimSpace(v) }

func resolveDelegated(args, payload *bool) *bool {
	if args != nil {
		return args
	}
	return payload
}

// Resolve builds a Context from in, applying precedence to every field
// and namespacing session identifiers via CorrelateID.
func Resolve(in Input) (*Context, error) {
	projectID, err := ResolveField("project_id", in.ProjectIDArgs, in.ProjectIDPayload)
	if err != nil {
		return nil, err
	}
	if in.RequireProjectID && projectID == "" {
		return nil, mcberrors.InvalidParams("project_id is required")
	}

	sessionID, err := ResolveField("session_id", in.SessionIDArgs, in.SessionIDPayload)
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		sessionID = CorrelateID("session", sessionID)
	}

	parentSessionID, err := ResolveField("parent_session_id", in.ParentSessionIDArgs, in.ParentSessionIDPayload)
	if err != nil {
		return nil, err
	}
	if parentSessionID != "" {
		parentSessionID = CorrelateID("parent_session", parentSessionID)
	}

	executionID, err := ResolveField("execution_id", in.ExecutionIDArgs, in.ExecutionIDPayload)
	if err != nil {
		return nil, err
	}
	toolName, err := ResolveField("tool_name", in.ToolNameArgs, in.ToolNamePayload)
	if err != nil {
		return nil, err
	}
	repoID, err := ResolveField("repo_id", in.RepoIDArgs, in.RepoIDPayload)
	if err != nil {
		return nil, err
	}
	repoPath, err := ResolveField("repo_path", in.RepoPathArgs, in.RepoPathPayload)
	if err != nil {
		return nil, err
	}
	worktreeID, err := ResolveField("worktree_id", in.WorktreeIDArgs, in.WorktreeIDPayload)
	if err != nil {
		return nil, err
	}
	filePath, err := ResolveField("file_path", in.FilePathArgs, in.FilePathPayload)
	if err != nil {
		return nil, err
	}
	branch, err := ResolveField("branch", in.BranchArgs, in.BranchPayload)
	if err != nil {
		return nil, err
	}
	commit, err := ResolveField("commit", in.CommitArgs, in.CommitPayload)
	if err != nil {
		return nil, err
	}
	operatorID, err := ResolveField("operator_id", in.OperatorIDArgs, in.OperatorIDPayload)
	if err != nil {
		return nil, err
	}
	machineID, err := ResolveField("machine_id", in.MachineIDArgs, in.MachineIDPayload)
	if err != nil {
		return nil, err
	}
	agentProgram, err := ResolveField("agent_program", in.AgentProgramArgs, in.AgentProgramPayload)
	if err != nil {
		return nil, err
	}
	modelID, err := ResolveField("model_id", in.ModelIDArgs, in.ModelIDPayload)
	if err != nil {
		return nil, err
	}

	orgID := in.OrgID
	if orgID == "" {
		orgID = defaultOrgID
	}

	timestamp := in.Timestamp
	if timestamp == 0 {
		now := in.Now
		if now == nil {
			now = time.Now
		}
		timestamp = now().Unix()
	}

	return &Context{
		OrgID:           orgID,
		ProjectID:       projectID,
		SessionID:       sessionID,
		ParentSessionID: parentSessionID,
		RepoID:          repoID,
		RepoPath:        repoPath,
		WorktreeID:      worktreeID,
		Branch:          branch,
		Commit:          commit,
		OperatorID:      operatorID,
		MachineID:       machineID,
		AgentProgram:    agentProgram,
		ModelID:         modelID,
		Delegated:       resolveDelegated(in.DelegatedArgs, in.DelegatedPayload),
		ExecutionID:     executionID,
		ToolName:        toolName,
		FilePath:        filePath,
		Timestamp:       timestamp,
	}, nil
}

// PayloadFields extracts the common origin-related fields from a
// decoded JSON object, for building an Input's *Payload side.
type PayloadFields struct {
	ProjectID       string
	SessionID       string
	ParentSessionID string
	RepoID          string
	RepoPath        string
	WorktreeID      string
	FilePath        string
	Branch          string
	Commit          string
	OperatorID      string
	MachineID       string
	AgentProgram    string
	ModelID         string
	Delegated       *bool
}

// ExtractPayloadFields reads PayloadFields out of a generic decoded
// JSON object (as produced by encoding/json into map[string]any).
func ExtractPayloadFields(data map[string]any) PayloadFields {
	return PayloadFields{
		ProjectID:       optStr(data, "project_id"),
		SessionID:       optStr(data, "session_id"),
		ParentSessionID: optStr(data, "parent_session_id"),
		RepoID:          optStr(data, "repo_id"),
		RepoPath:        optStr(data, "repo_path"),
		WorktreeID:      optStr(data, "worktree_id"),
		FilePath:        optStr(data, "file_path"),
		Branch:          optStr(data, "branch"),
		Commit:          optStr(data, "commit"),
		OperatorID:      optStr(data, "operator_id"),
		MachineID:       optStr(data, "machine_id"),
		AgentProgram:    optStr(data, "agent_program"),
		ModelID:         optStr(data, "model_id"),
		Delegated:       optBool(data, "delegated"),
	}
}

func optStr(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func optBool(data map[string]any, key string) *bool {
	if v, ok := data[key]; ok {
		switch b := v.(type) {
		case bool:
			return &b
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
