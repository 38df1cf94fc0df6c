package httpbridge_test

import (
	"context"
	"sync"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/memory"
)

// stubMemoryRepo is a minimal in-memory memory.Repository, just enough
// to exercise memory_store/memory_get over the bridge without a
// database (analogous to mcptools's stub of the same interface).
type stubMemoryRepo struct {
	mu   sync.Mutex
	obs  map[string]memory.Observation
	sums map[string]memory.SessionSummary
}

func newStubMemoryRepo() *stubMemoryRepo {
	return &stubMemoryRepo{obs: map[string]memory.Observation{}, sums: map[string]memory.SessionSummary{}}
}

func (s *stubMemoryRepo) StoreObservation(ctx context.Context, obs memory.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs[obs.ID] = obs
	return nil
}

func (s *stubMemoryRepo) GetObservation(ctx context.Context, id string) (*memory.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.obs[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *stubMemoryRepo) FindByHash(ctx context.Context, contentHash string) (*memory.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.obs {
		if o.ContentHash == contentHash {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *stubMemoryRepo) GetObservationsByIDs(ctx context.Context, ids []string) ([]memory.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]memory.Observation, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.obs[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubMemoryRepo) DeleteObservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.obs, id)
	return nil
}

func (s *stubMemoryRepo) SearchFTS(ctx context.Context, query string, limit int) ([]string, error) {
	return nil, nil
}

func (s *stubMemoryRepo) SearchFTSRanked(ctx context.Context, query string, limit int) ([]memory.FtsResult, error) {
	return nil, nil
}

func (s *stubMemoryRepo) SearchFiltered(ctx context.Context, filter memory.Filter, limit int) ([]memory.Observation, error) {
	return nil, nil
}

func (s *stubMemoryRepo) GetTimeline(ctx context.Context, anchorID string, before, after int, filter *memory.Filter) ([]memory.Observation, error) {
	return nil, nil
}

func (s *stubMemoryRepo) StoreSessionSummary(ctx context.Context, summary memory.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sums[summary.SessionID] = summary
	return nil
}

func (s *stubMemoryRepo) GetSessionSummary(ctx context.Context, sessionID string) (*memory.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum, ok := s.sums[sessionID]; ok {
		return &sum, nil
	}
	return nil, nil
}

// stubAgentRepo backs session_create/session_list over the bridge.
type stubAgentRepo struct {
	mu       sync.Mutex
	sessions map[string]entities.AgentSession
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{sessions: map[string]entities.AgentSession{}}
}

func (r *stubAgentRepo) CreateSession(ctx context.Context, s entities.AgentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
	return nil
}

func (r *stubAgentRepo) GetSession(ctx context.Context, id string) (*entities.AgentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *stubAgentRepo) EndSession(ctx context.Context, id string, endedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.EndedAt = &endedAt
		r.sessions[id] = s
	}
	return nil
}

func (r *stubAgentRepo) ListSessions(ctx context.Context, q entities.AgentSessionQuery) ([]entities.AgentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AgentSession
	for _, s := range r.sessions {
		if s.ProjectID == q.ProjectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubAgentRepo) StoreDelegation(ctx context.Context, d entities.Delegation) error { return nil }
func (r *stubAgentRepo) ListDelegations(ctx context.Context, parentSessionID string) ([]entities.Delegation, error) {
	return nil, nil
}
func (r *stubAgentRepo) StoreToolCall(ctx context.Context, t entities.ToolCall) error { return nil }
func (r *stubAgentRepo) ListToolCalls(ctx context.Context, sessionID string) ([]entities.ToolCall, error) {
	return nil, nil
}
func (r *stubAgentRepo) StoreCheckpoint(ctx context.Context, c entities.Checkpoint) error { return nil }
func (r *stubAgentRepo) GetCheckpoint(ctx context.Context, id string) (*entities.Checkpoint, error) {
	return nil, nil
}
func (r *stubAgentRepo) ListCheckpoints(ctx context.Context, sessionID string) ([]entities.Checkpoint, error) {
	return nil, nil
}
func (r *stubAgentRepo) DeleteCheckpoint(ctx context.Context, id string) error { return nil }

// stubIssueRepo, stubVCSRepo, and stubTenantRepo are unused by the
// tests below but keep mcptools.New satisfied with a real interface
// value rather than a nil that would panic on any call.
type stubIssueRepo struct{}

func (stubIssueRepo) CreateIssue(ctx context.Context, i entities.Issue) error { return nil }
func (stubIssueRepo) GetIssue(ctx context.Context, id string) (*entities.Issue, error) {
	return nil, nil
}
func (stubIssueRepo) UpdateIssueState(ctx context.Context, id, state string, updatedAt int64) error {
	return nil
}
func (stubIssueRepo) ListIssues(ctx context.Context, q entities.IssueQuery) ([]entities.Issue, error) {
	return nil, nil
}
func (stubIssueRepo) AddComment(ctx context.Context, c entities.IssueComment) error { return nil }
func (stubIssueRepo) ListComments(ctx context.Context, issueID string) ([]entities.IssueComment, error) {
	return nil, nil
}
func (stubIssueRepo) CreateLabel(ctx context.Context, l entities.IssueLabel) error { return nil }
func (stubIssueRepo) ListLabels(ctx context.Context, projectID string) ([]entities.IssueLabel, error) {
	return nil, nil
}
func (stubIssueRepo) AssignLabel(ctx context.Context, a entities.IssueLabelAssignment) error {
	return nil
}
func (stubIssueRepo) ListLabelsForIssue(ctx context.Context, issueID string) ([]entities.IssueLabel, error) {
	return nil, nil
}

type stubVCSRepo struct{}

func (stubVCSRepo) CreateRepository(ctx context.Context, r entities.Repository) error { return nil }
func (stubVCSRepo) GetRepositoryByPath(ctx context.Context, projectID, rootPath string) (*entities.Repository, error) {
	return nil, nil
}
func (stubVCSRepo) CreateBranch(ctx context.Context, b entities.Branch) error { return nil }
func (stubVCSRepo) ListBranches(ctx context.Context, repositoryID string) ([]entities.Branch, error) {
	return nil, nil
}
func (stubVCSRepo) CreateWorktree(ctx context.Context, w entities.Worktree) error { return nil }
func (stubVCSRepo) SetWorktreeStatus(ctx context.Context, id string, status entities.WorktreeStatus) error {
	return nil
}
func (stubVCSRepo) ListWorktrees(ctx context.Context, repositoryID string, status entities.WorktreeStatus) ([]entities.Worktree, error) {
	return nil, nil
}
func (stubVCSRepo) AssignWorktree(ctx context.Context, a entities.AgentWorktreeAssignment) error {
	return nil
}
func (stubVCSRepo) ReleaseWorktree(ctx context.Context, worktreeID, sessionID string, releasedAt int64) error {
	return nil
}
func (stubVCSRepo) ActiveAssignment(ctx context.Context, worktreeID string) (*entities.AgentWorktreeAssignment, error) {
	return nil, nil
}

type stubTenantRepo struct{}

func (stubTenantRepo) CreateOrganization(ctx context.Context, o entities.Organization) error {
	return nil
}
func (stubTenantRepo) GetOrganization(ctx context.Context, id string) (*entities.Organization, error) {
	return &entities.Organization{ID: id, Name: "stub"}, nil
}
func (stubTenantRepo) CreateUser(ctx context.Context, u entities.User) error { return nil }
func (stubTenantRepo) GetUserByEmail(ctx context.Context, orgID, email string) (*entities.User, error) {
	return nil, nil
}
func (stubTenantRepo) CreateTeam(ctx context.Context, t entities.Team) error { return nil }
func (stubTenantRepo) AddTeamMember(ctx context.Context, m entities.TeamMember) error { return nil }
func (stubTenantRepo) ListTeamMembers(ctx context.Context, teamID string) ([]entities.TeamMember, error) {
	return nil, nil
}
func (stubTenantRepo) CreateAPIKey(ctx context.Context, k entities.APIKey) error { return nil }
func (stubTenantRepo) GetAPIKeyByHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
	return nil, nil
}
func (stubTenantRepo) RevokeAPIKey(ctx context.Context, id string, revokedAt int64) error {
	return nil
}
