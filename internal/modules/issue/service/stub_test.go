package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"anoa.com/softdesk/internal/entity"
	search "anoa.com/softdesk/internal/modules/search/service"
	"anoa.com/softdesk/internal/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	projects map[uuid.UUID]*entity.Project
	members  map[uuid.UUID]map[uuid.UUID]bool
	issues   map[uuid.UUID]*entity.Issue
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*entity.User{},
		projects: map[uuid.UUID]*entity.Project{},
		members:  map[uuid.UUID]map[uuid.UUID]bool{},
		issues:   map[uuid.UUID]*entity.Issue{},
	}
}

func (m *memStore) addUser(name string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &entity.User{ID: uuid.New(), Username: name}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addProject(author uuid.UUID, members ...uuid.UUID) *entity.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &entity.Project{ID: uuid.New(), AuthorID: author, Name: "p", Type: entity.ProjectTypeBackend}
	m.projects[p.ID] = p
	m.members[p.ID] = map[uuid.UUID]bool{author: true}
	for _, id := range members {
		m.members[p.ID][id] = true
	}
	return p
}

func (m *memStore) removeMember(projectID, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[projectID], userID)
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStore) IsMember(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[projectID][userID], nil
}

type memIssueRepo struct{ *memStore }

func (r memIssueRepo) Create(_ context.Context, issue *entity.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	if issue.Status == "" {
		issue.Status = entity.IssueStatusTodo
	}
	if issue.Priority == "" {
		issue.Priority = entity.IssuePriorityLow
	}
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	clone := *issue
	r.issues[issue.ID] = &clone
	return nil
}

func (r memIssueRepo) withAuthor(issue *entity.Issue) *entity.Issue {
	clone := *issue
	if issue.AuthorID != nil {
		if u, ok := r.users[*issue.AuthorID]; ok {
			author := *u
			clone.Author = &author
		}
	}
	return &clone
}

func (r memIssueRepo) FindInProject(_ context.Context, projectID, issueID uuid.UUID) (*entity.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok || issue.ProjectID != projectID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withAuthor(issue), nil
}

func (r memIssueRepo) ListReadable(_ context.Context, projectID, actorID uuid.UUID, offset, limit int) ([]*entity.Issue, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	project := r.projects[projectID]
	var out []*entity.Issue
	for _, issue := range r.issues {
		if issue.ProjectID != projectID {
			continue
		}
		own := issue.AuthorID != nil && *issue.AuthorID == actorID
		if own || project.AuthorID == actorID || r.members[projectID][actorID] {
			out = append(out, r.withAuthor(issue))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })

	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r memIssueRepo) Update(_ context.Context, issue *entity.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *issue
	clone.Author = nil
	clone.UpdatedAt = time.Now()
	r.issues[issue.ID] = &clone
	return nil
}

func (r memIssueRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.issues, id)
	return nil
}

type noComments struct{}

func (noComments) FindInIssue(context.Context, uuid.UUID, uuid.UUID) (*entity.Comment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (noComments) FindInProject(context.Context, uuid.UUID, uuid.UUID) (*entity.Contributor, error) {
	return nil, gorm.ErrRecordNotFound
}

type recordingIndex struct {
	indexed []string
	deleted []string
	query   string
	project uuid.UUID
	hits    []search.IssueDocument
}

func (r *recordingIndex) IndexIssue(issue *entity.Issue) error {
	r.indexed = append(r.indexed, issue.ID.String())
	return nil
}

func (r *recordingIndex) DeleteIssue(id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingIndex) SearchIssues(projectID uuid.UUID, query string, limit, offset int) ([]search.IssueDocument, int64, error) {
	r.project = projectID
	r.query = query
	return r.hits, int64(len(r.hits)), nil
}

type fixture struct {
	store   *memStore
	service IssueService
	index   *recordingIndex
}

func newFixture() *fixture {
	store := newMemStore()
	resolver := scope.NewResolver(store, store, memIssueRepo{store}, noComments{}, noComments{})
	index := &recordingIndex{}
	return &fixture{
		store:   store,
		service: NewIssueService(memIssueRepo{store}, resolver, index, nil, 0, 0),
		index:   index,
	}
}
