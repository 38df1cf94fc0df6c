package httpbridge

import (
	"context"
	"encoding/json"

	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/mcptools"
)

// handlerFunc dispatches one decoded tools/call onto a Tools method.
type handlerFunc func(ctx context.Context, tools *mcptools.Tools, args json.RawMessage) (any, error)

// toolHandler decodes args into In, calls fn, and boxes the result as
// any so the registry can stay uniform across return types. An empty
// (nil) args payload still decodes to fn's zero value, matching how
// mcp.AddTool handles a tool with no required fields.
func toolHandler[In any, Out any](fn func(*mcptools.Tools, context.Context, In) (Out, error)) handlerFunc {
	return func(ctx context.Context, tools *mcptools.Tools, raw json.RawMessage) (any, error) {
		var in In
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, mcberrors.InvalidParams("invalid arguments: " + err.Error())
			}
		}
		return fn(tools, ctx, in)
	}
}

// registry maps every tool mcptools.Tools.RegisterAll registers over
// stdio to the same method, so the HTTP bridge and the stdio
// transport can never drift: both dispatch into identical business
// logic, differing only in how the call arrived.
var registry = map[string]handlerFunc{
	"memory_store":          toolHandler((*mcptools.Tools).StoreObservation),
	"memory_get":             toolHandler((*mcptools.Tools).GetObservation),
	"memory_search":          toolHandler((*mcptools.Tools).Search),
	"memory_timeline":        toolHandler((*mcptools.Tools).Timeline),
	"session_summary_store":  toolHandler((*mcptools.Tools).StoreSessionSummary),
	"session_summary_get":    toolHandler((*mcptools.Tools).GetSessionSummary),

	"session_create":         toolHandler((*mcptools.Tools).CreateSession),
	"session_end":            toolHandler((*mcptools.Tools).EndSession),
	"session_list":           toolHandler((*mcptools.Tools).ListSessions),
	"delegation_record":      toolHandler((*mcptools.Tools).RecordDelegation),
	"tool_call_record":       toolHandler((*mcptools.Tools).RecordToolCall),
	"agent_checkpoint_save":   toolHandler((*mcptools.Tools).SaveAgentCheckpoint),
	"agent_checkpoint_get":    toolHandler((*mcptools.Tools).GetAgentCheckpoint),
	"agent_checkpoint_list":   toolHandler((*mcptools.Tools).ListAgentCheckpoints),
	"agent_checkpoint_delete": toolHandler((*mcptools.Tools).DeleteAgentCheckpoint),

	"issue_entity_create":       toolHandler((*mcptools.Tools).CreateIssue),
	"issue_entity_get":          toolHandler((*mcptools.Tools).GetIssue),
	"issue_entity_list":         toolHandler((*mcptools.Tools).ListIssues),
	"issue_entity_update_state": toolHandler((*mcptools.Tools).UpdateIssueState),
	"issue_entity_comment_add":    toolHandler((*mcptools.Tools).AddIssueComment),
	"issue_entity_comments_list":  toolHandler((*mcptools.Tools).ListIssueComments),
	"issue_entity_label_create":   toolHandler((*mcptools.Tools).CreateIssueLabel),
	"issue_entity_label_assign":   toolHandler((*mcptools.Tools).AssignIssueLabel),
	"issue_entity_labels_list":    toolHandler((*mcptools.Tools).ListIssueLabels),

	"vcs_entity_repository_register": toolHandler((*mcptools.Tools).RegisterRepository),
	"vcs_entity_branch_register":     toolHandler((*mcptools.Tools).RegisterBranch),
	"vcs_entity_branches_list":       toolHandler((*mcptools.Tools).ListBranches),
	"vcs_entity_worktree_create":     toolHandler((*mcptools.Tools).CreateWorktree),
	"vcs_entity_worktrees_list":      toolHandler((*mcptools.Tools).ListWorktrees),
	"vcs_entity_worktree_assign":     toolHandler((*mcptools.Tools).AssignWorktree),
	"vcs_entity_worktree_release":    toolHandler((*mcptools.Tools).ReleaseWorktree),

	"project_organization_ensure": toolHandler((*mcptools.Tools).EnsureOrganization),
	"project_user_create":         toolHandler((*mcptools.Tools).CreateUser),
	"project_team_create":         toolHandler((*mcptools.Tools).CreateTeam),
	"project_team_member_add":     toolHandler((*mcptools.Tools).AddTeamMember),
	"project_team_members_list":   toolHandler((*mcptools.Tools).ListTeamMembers),

	"repository_index": toolHandler((*mcptools.Tools).IndexRepository),
}

// toolNames lists every dispatchable tool name, for tools/list.
func toolNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
