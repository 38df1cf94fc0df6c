package httpbridge

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
)

// headerProvenance is the set of origin fields a caller may supply as
// HTTP headers instead of (or alongside) top-level JSON arguments,
// mirroring the original bridge's BridgeProvenance extraction.
type headerProvenance struct {
	WorkspaceRoot   string
	RepoPath        string
	RepoID          string
	SessionID       string
	ParentSessionID string
	ProjectID       string
	WorktreeID      string
	OperatorID      string
	MachineID       string
	AgentProgram    string
	ModelID         string
	ExecutionFlow   string
}

func extractHeaderProvenance(h http.Header) headerProvenance {
	return headerProvenance{
		WorkspaceRoot:   h.Get("X-Workspace-Root"),
		RepoPath:        h.Get("X-Repo-Path"),
		RepoID:          h.Get("X-Repo-Id"),
		SessionID:       h.Get("X-Session-Id"),
		ParentSessionID: h.Get("X-Parent-Session-Id"),
		ProjectID:       h.Get("X-Project-Id"),
		WorktreeID:      h.Get("X-Worktree-Id"),
		OperatorID:      h.Get("X-Operator-Id"),
		MachineID:       h.Get("X-Machine-Id"),
		AgentProgram:    h.Get("X-Agent-Program"),
		ModelID:         h.Get("X-Model-Id"),
		ExecutionFlow:   h.Get("X-Execution-Flow"),
	}
}

// hasWorkspaceProvenance gates tools/call the same way the original
// bridge does: a direct HTTP caller with no workspace or repo context
// at all is refused rather than silently operating org-wide.
func (p headerProvenance) hasWorkspaceProvenance() bool {
	return strings.TrimSpace(p.WorkspaceRoot) != "" || strings.TrimSpace(p.RepoPath) != ""
}

// asFields turns non-empty header values into the snake_case argument
// keys the mcptools input structs use, applying the same environment
// fallback the original bridge applies for operator/machine identity
// and defaulting agent_program/repo_path the way it does.
func (p headerProvenance) asFields() map[string]string {
	fields := map[string]string{}
	set := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			fields[key] = value
		}
	}
	set("project_id", p.ProjectID)
	set("session_id", p.SessionID)
	set("parent_session_id", p.ParentSessionID)
	set("repo_id", p.RepoID)
	set("worktree_id", p.WorktreeID)
	set("operator_id", p.OperatorID)
	set("machine_id", p.MachineID)
	set("agent_program", p.AgentProgram)
	set("model_id", p.ModelID)

	repoPath := p.RepoPath
	if repoPath == "" {
		repoPath = p.WorkspaceRoot
	}
	set("repo_path", repoPath)

	if fields["operator_id"] == "" {
		set("operator_id", os.Getenv("USER"))
	}
	if fields["machine_id"] == "" {
		set("machine_id", os.Getenv("HOSTNAME"))
	}
	if fields["agent_program"] == "" {
		fields["agent_program"] = "mcb-http-bridge"
	}
	if fields["model_id"] == "" {
		fields["model_id"] = "unknown"
	}
	return fields
}

// mergeHeaderFields layers header-derived provenance under whatever
// the caller already put in the JSON arguments: any key already
// present and non-empty in raw wins, matching the original's
// apply_to_request_if_missing precedence. Keys the target tool's
// input struct doesn't declare are silently ignored by json.Unmarshal
// at dispatch time.
func mergeHeaderFields(raw json.RawMessage, fields map[string]string) (json.RawMessage, error) {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
	}
	for key, value := range fields {
		if existing, present := args[key]; present {
			if s, isString := existing.(string); !isString || s != "" {
				continue
			}
		}
		args[key] = value
	}
	return json.Marshal(args)
}
