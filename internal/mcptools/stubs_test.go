package mcptools_test

import (
	"context"
	"fmt"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/memory"
	"github.com/marlonsc/mcb/internal/vecstore"
)

// stubMemoryRepo is a minimal in-memory memory.Repository good enough
// to exercise the mcptools memory handlers without a database.
type stubMemoryRepo struct {
	observations map[string]memory.Observation
	summaries    map[string]memory.SessionSummary
}

func newStubMemoryRepo() *stubMemoryRepo {
	return &stubMemoryRepo{observations: map[string]memory.Observation{}, summaries: map[string]memory.SessionSummary{}}
}

func (r *stubMemoryRepo) StoreObservation(ctx context.Context, obs memory.Observation) error {
	r.observations[obs.ID] = obs
	return nil
}

func (r *stubMemoryRepo) GetObservation(ctx context.Context, id string) (*memory.Observation, error) {
	obs, ok := r.observations[id]
	if !ok {
		return nil, nil
	}
	return &obs, nil
}

func (r *stubMemoryRepo) FindByHash(ctx context.Context, contentHash string) (*memory.Observation, error) {
	for _, o := range r.observations {
		if o.ContentHash == contentHash {
			return &o, nil
		}
	}
	return nil, nil
}

func (r *stubMemoryRepo) GetObservationsByIDs(ctx context.Context, ids []string) ([]memory.Observation, error) {
	var out []memory.Observation
	for _, id := range ids {
		if o, ok := r.observations[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *stubMemoryRepo) DeleteObservation(ctx context.Context, id string) error {
	delete(r.observations, id)
	return nil
}

func (r *stubMemoryRepo) SearchFTS(ctx context.Context, query string, limit int) ([]string, error) {
	var ids []string
	for id := range r.observations {
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (r *stubMemoryRepo) SearchFTSRanked(ctx context.Context, query string, limit int) ([]memory.FtsResult, error) {
	var out []memory.FtsResult
	rank := 1
	for id := range r.observations {
		out = append(out, memory.FtsResult{ID: id, Rank: float64(rank)})
		rank++
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubMemoryRepo) SearchFiltered(ctx context.Context, filter memory.Filter, limit int) ([]memory.Observation, error) {
	var out []memory.Observation
	for _, o := range r.observations {
		out = append(out, o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubMemoryRepo) GetTimeline(ctx context.Context, anchorID string, before, after int, filter *memory.Filter) ([]memory.Observation, error) {
	anchor, ok := r.observations[anchorID]
	if !ok {
		return nil, nil
	}
	return []memory.Observation{anchor}, nil
}

func (r *stubMemoryRepo) StoreSessionSummary(ctx context.Context, summary memory.SessionSummary) error {
	r.summaries[summary.SessionID] = summary
	return nil
}

func (r *stubMemoryRepo) GetSessionSummary(ctx context.Context, sessionID string) (*memory.SessionSummary, error) {
	s, ok := r.summaries[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// stubVectorStore is a no-op vecstore.Store: SearchSimilar always
// returns no hits, which combined with a nil embedder exercises the
// hybrid engine's FTS-only fusion path.
type stubVectorStore struct{}

func (stubVectorStore) CollectionExists(ctx context.Context, name string) (bool, error) { return true, nil }
func (stubVectorStore) GetStats(ctx context.Context, collection string) (map[string]any, error) {
	return nil, nil
}
func (stubVectorStore) Flush(ctx context.Context, collection string) error { return nil }
func (stubVectorStore) ProviderName() string                              { return "stub" }
func (stubVectorStore) CreateCollection(ctx context.Context, name string, dimensions int) error {
	return nil
}
func (stubVectorStore) DeleteCollection(ctx context.Context, name string) error { return nil }
func (stubVectorStore) InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error) {
	return nil, nil
}
func (stubVectorStore) SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (stubVectorStore) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (stubVectorStore) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (stubVectorStore) ListVectors(ctx context.Context, collection string, limit int) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (stubVectorStore) ListCollections(ctx context.Context) ([]vecstore.CollectionInfo, error) {
	return nil, nil
}
func (stubVectorStore) ListFilePaths(ctx context.Context, collection string, limit int) ([]vecstore.FileInfo, error) {
	return nil, nil
}
func (stubVectorStore) GetChunksByFile(ctx context.Context, collection, filePath string) ([]vecstore.SearchResult, error) {
	return nil, nil
}

// stubAgentRepo implements entities.AgentRepository in memory.
type stubAgentRepo struct {
	sessions    map[string]entities.AgentSession
	delegations []entities.Delegation
	toolCalls   []entities.ToolCall
	checkpoints map[string]entities.Checkpoint
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{
		sessions:    map[string]entities.AgentSession{},
		checkpoints: map[string]entities.Checkpoint{},
	}
}

func (r *stubAgentRepo) CreateSession(ctx context.Context, s entities.AgentSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubAgentRepo) GetSession(ctx context.Context, id string) (*entities.AgentSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *stubAgentRepo) EndSession(ctx context.Context, id string, endedAt int64) error {
	for k, s := range r.sessions {
		if s.SessionID == id {
			s.EndedAt = &endedAt
			r.sessions[k] = s
		}
	}
	return nil
}

func (r *stubAgentRepo) ListSessions(ctx context.Context, q entities.AgentSessionQuery) ([]entities.AgentSession, error) {
	var out []entities.AgentSession
	for _, s := range r.sessions {
		if q.ProjectID != "" && s.ProjectID != q.ProjectID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *stubAgentRepo) StoreDelegation(ctx context.Context, d entities.Delegation) error {
	r.delegations = append(r.delegations, d)
	return nil
}

func (r *stubAgentRepo) ListDelegations(ctx context.Context, parentSessionID string) ([]entities.Delegation, error) {
	var out []entities.Delegation
	for _, d := range r.delegations {
		if d.ParentSessionID == parentSessionID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubAgentRepo) StoreToolCall(ctx context.Context, t entities.ToolCall) error {
	r.toolCalls = append(r.toolCalls, t)
	return nil
}

func (r *stubAgentRepo) ListToolCalls(ctx context.Context, sessionID string) ([]entities.ToolCall, error) {
	var out []entities.ToolCall
	for _, c := range r.toolCalls {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubAgentRepo) StoreCheckpoint(ctx context.Context, c entities.Checkpoint) error {
	r.checkpoints[c.ID] = c
	return nil
}

func (r *stubAgentRepo) GetCheckpoint(ctx context.Context, id string) (*entities.Checkpoint, error) {
	c, ok := r.checkpoints[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *stubAgentRepo) ListCheckpoints(ctx context.Context, sessionID string) ([]entities.Checkpoint, error) {
	var out []entities.Checkpoint
	for _, c := range r.checkpoints {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubAgentRepo) DeleteCheckpoint(ctx context.Context, id string) error {
	delete(r.checkpoints, id)
	return nil
}

// stubIssueRepo implements entities.IssueRepository in memory.
type stubIssueRepo struct {
	issues       map[string]entities.Issue
	comments     []entities.IssueComment
	labels       map[string]entities.IssueLabel
	assignments  []entities.IssueLabelAssignment
}

func newStubIssueRepo() *stubIssueRepo {
	return &stubIssueRepo{issues: map[string]entities.Issue{}, labels: map[string]entities.IssueLabel{}}
}

func (r *stubIssueRepo) CreateIssue(ctx context.Context, i entities.Issue) error {
	r.issues[i.ID] = i
	return nil
}

func (r *stubIssueRepo) GetIssue(ctx context.Context, id string) (*entities.Issue, error) {
	i, ok := r.issues[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r *stubIssueRepo) UpdateIssueState(ctx context.Context, id, state string, updatedAt int64) error {
	i, ok := r.issues[id]
	if !ok {
		return fmt.Errorf("not found: %s", id)
	}
	i.State = state
	i.UpdatedAt = updatedAt
	r.issues[id] = i
	return nil
}

func (r *stubIssueRepo) ListIssues(ctx context.Context, q entities.IssueQuery) ([]entities.Issue, error) {
	var out []entities.Issue
	for _, i := range r.issues {
		if q.ProjectID != "" && i.ProjectID != q.ProjectID {
			continue
		}
		if q.State != "" && i.State != q.State {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (r *stubIssueRepo) AddComment(ctx context.Context, c entities.IssueComment) error {
	r.comments = append(r.comments, c)
	return nil
}

func (r *stubIssueRepo) ListComments(ctx context.Context, issueID string) ([]entities.IssueComment, error) {
	var out []entities.IssueComment
	for _, c := range r.comments {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubIssueRepo) CreateLabel(ctx context.Context, l entities.IssueLabel) error {
	r.labels[l.ID] = l
	return nil
}

func (r *stubIssueRepo) ListLabels(ctx context.Context, projectID string) ([]entities.IssueLabel, error) {
	var out []entities.IssueLabel
	for _, l := range r.labels {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubIssueRepo) AssignLabel(ctx context.Context, a entities.IssueLabelAssignment) error {
	r.assignments = append(r.assignments, a)
	return nil
}

func (r *stubIssueRepo) ListLabelsForIssue(ctx context.Context, issueID string) ([]entities.IssueLabel, error) {
	var out []entities.IssueLabel
	for _, a := range r.assignments {
		if a.IssueID == issueID {
			if l, ok := r.labels[a.LabelID]; ok {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

// stubVCSRepo implements entities.VCSRepository in memory.
type stubVCSRepo struct {
	repos       map[string]entities.Repository
	branches    []entities.Branch
	worktrees   map[string]entities.Worktree
	assignments []entities.AgentWorktreeAssignment
}

func newStubVCSRepo() *stubVCSRepo {
	return &stubVCSRepo{repos: map[string]entities.Repository{}, worktrees: map[string]entities.Worktree{}}
}

func (r *stubVCSRepo) CreateRepository(ctx context.Context, repo entities.Repository) error {
	for _, existing := range r.repos {
		if existing.ProjectID == repo.ProjectID && existing.RootPath == repo.RootPath {
			return nil
		}
	}
	r.repos[repo.ID] = repo
	return nil
}

func (r *stubVCSRepo) GetRepositoryByPath(ctx context.Context, projectID, rootPath string) (*entities.Repository, error) {
	for _, repo := range r.repos {
		if repo.ProjectID == projectID && repo.RootPath == rootPath {
			return &repo, nil
		}
	}
	return nil, nil
}

func (r *stubVCSRepo) CreateBranch(ctx context.Context, b entities.Branch) error {
	r.branches = append(r.branches, b)
	return nil
}

func (r *stubVCSRepo) ListBranches(ctx context.Context, repositoryID string) ([]entities.Branch, error) {
	var out []entities.Branch
	for _, b := range r.branches {
		if b.RepositoryID == repositoryID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubVCSRepo) CreateWorktree(ctx context.Context, w entities.Worktree) error {
	r.worktrees[w.ID] = w
	return nil
}

func (r *stubVCSRepo) SetWorktreeStatus(ctx context.Context, id string, status entities.WorktreeStatus) error {
	w, ok := r.worktrees[id]
	if !ok {
		return fmt.Errorf("not found: %s", id)
	}
	w.Status = status
	r.worktrees[id] = w
	return nil
}

func (r *stubVCSRepo) ListWorktrees(ctx context.Context, repositoryID string, status entities.WorktreeStatus) ([]entities.Worktree, error) {
	var out []entities.Worktree
	for _, w := range r.worktrees {
		if w.RepositoryID != repositoryID {
			continue
		}
		if status != "" && w.Status != status {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *stubVCSRepo) AssignWorktree(ctx context.Context, a entities.AgentWorktreeAssignment) error {
	r.assignments = append(r.assignments, a)
	return r.SetWorktreeStatus(ctx, a.WorktreeID, entities.WorktreeInUse)
}

func (r *stubVCSRepo) ReleaseWorktree(ctx context.Context, worktreeID, sessionID string, releasedAt int64) error {
	for i, a := range r.assignments {
		if a.WorktreeID == worktreeID && a.SessionID == sessionID && a.ReleasedAt == nil {
			r.assignments[i].ReleasedAt = &releasedAt
		}
	}
	return r.SetWorktreeStatus(ctx, worktreeID, entities.WorktreeActive)
}

func (r *stubVCSRepo) ActiveAssignment(ctx context.Context, worktreeID string) (*entities.AgentWorktreeAssignment, error) {
	for _, a := range r.assignments {
		if a.WorktreeID == worktreeID && a.ReleasedAt == nil {
			return &a, nil
		}
	}
	return nil, nil
}

// stubTenantRepo implements entities.TenantRepository in memory.
type stubTenantRepo struct {
	orgs    map[string]entities.Organization
	users   []entities.User
	teams   map[string]entities.Team
	members []entities.TeamMember
	keys    map[string]entities.APIKey
}

func newStubTenantRepo() *stubTenantRepo {
	return &stubTenantRepo{
		orgs:  map[string]entities.Organization{},
		teams: map[string]entities.Team{},
		keys:  map[string]entities.APIKey{},
	}
}

func (r *stubTenantRepo) CreateOrganization(ctx context.Context, o entities.Organization) error {
	if _, ok := r.orgs[o.ID]; ok {
		return nil
	}
	r.orgs[o.ID] = o
	return nil
}

func (r *stubTenantRepo) GetOrganization(ctx context.Context, id string) (*entities.Organization, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *stubTenantRepo) CreateUser(ctx context.Context, u entities.User) error {
	r.users = append(r.users, u)
	return nil
}

func (r *stubTenantRepo) GetUserByEmail(ctx context.Context, orgID, email string) (*entities.User, error) {
	for _, u := range r.users {
		if u.OrgID == orgID && u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *stubTenantRepo) CreateTeam(ctx context.Context, t entities.Team) error {
	r.teams[t.ID] = t
	return nil
}

func (r *stubTenantRepo) AddTeamMember(ctx context.Context, m entities.TeamMember) error {
	r.members = append(r.members, m)
	return nil
}

func (r *stubTenantRepo) ListTeamMembers(ctx context.Context, teamID string) ([]entities.TeamMember, error) {
	var out []entities.TeamMember
	for _, m := range r.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubTenantRepo) CreateAPIKey(ctx context.Context, k entities.APIKey) error {
	r.keys[k.ID] = k
	return nil
}

func (r *stubTenantRepo) GetAPIKeyByHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
	for _, k := range r.keys {
		if k.KeyHash == keyHash {
			return &k, nil
		}
	}
	return nil, nil
}

func (r *stubTenantRepo) RevokeAPIKey(ctx context.Context, id string, revokedAt int64) error {
	k, ok := r.keys[id]
	if !ok {
		return fmt.Errorf("not found: %s", id)
	}
	k.RevokedAt = &revokedAt
	r.keys[id] = k
	return nil
}
