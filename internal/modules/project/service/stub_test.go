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

// memStore backs the project, contributor and user repositories in tests.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*entity.User
	projects     map[uuid.UUID]*entity.Project
	contributors map[uuid.UUID]*entity.Contributor
	issues       map[uuid.UUID][]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[uuid.UUID]*entity.User{},
		projects:     map[uuid.UUID]*entity.Project{},
		contributors: map[uuid.UUID]*entity.Contributor{},
		issues:       map[uuid.UUID][]uuid.UUID{},
	}
}

func (m *memStore) addUser(name string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &entity.User{ID: uuid.New(), Username: name, Email: name + "@example.com"}
	m.users[u.ID] = u
	return u
}

func (m *memStore) upsertAdminLocked(projectID, userID uuid.UUID) {
	for _, c := range m.contributors {
		if c.ProjectID == projectID && c.UserID == userID {
			c.Role = entity.ContributorRoleAdmin
			return
		}
	}
	c := &entity.Contributor{ID: uuid.New(), ProjectID: projectID, UserID: userID, Role: entity.ContributorRoleAdmin, CreatedAt: time.Now()}
	m.contributors[c.ID] = c
}

type memProjectRepo struct{ *memStore }

func (r memProjectRepo) Create(_ context.Context, p *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[p.AuthorID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	r.projects[p.ID] = &clone
	r.upsertAdminLocked(p.ID, p.AuthorID)
	return nil
}

func (r memProjectRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	clone.Author = *r.users[p.AuthorID]
	return &clone, nil
}

func (r memProjectRepo) ListForUser(_ context.Context, userID uuid.UUID, offset, limit int) ([]*entity.Project, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := map[uuid.UUID]bool{}
	for _, p := range r.projects {
		if p.AuthorID == userID {
			seen[p.ID] = true
		}
	}
	for _, c := range r.contributors {
		if c.UserID == userID {
			seen[c.ProjectID] = true
		}
	}

	var out []*entity.Project
	for id := range seen {
		clone := *r.projects[id]
		clone.Author = *r.users[clone.AuthorID]
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

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

func (r memProjectRepo) Update(_ context.Context, p *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	clone.UpdatedAt = time.Now()
	r.projects[p.ID] = &clone
	r.upsertAdminLocked(p.ID, p.AuthorID)
	return nil
}

func (r memProjectRepo) IssueIDs(_ context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.issues[projectID]...), nil
}

func (r memProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	delete(r.issues, id)
	for cid, c := range r.contributors {
		if c.ProjectID == id {
			delete(r.contributors, cid)
		}
	}
	return nil
}

type memContributorRepo struct{ *memStore }

func (r memContributorRepo) IsMember(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contributors {
		if c.ProjectID == projectID && c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memContributorRepo) FindInProject(_ context.Context, projectID, contributorID uuid.UUID) (*entity.Contributor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contributors[contributorID]
	if !ok || c.ProjectID != projectID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	clone.User = *r.users[c.UserID]
	return &clone, nil
}

func (r memContributorRepo) ListByProject(_ context.Context, projectID uuid.UUID, offset, limit int) ([]*entity.Contributor, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Contributor
	for _, c := range r.contributors {
		if c.ProjectID == projectID {
			clone := *c
			clone.User = *r.users[c.UserID]
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.Username < out[j].User.Username })
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

func (r memContributorRepo) Create(_ context.Context, c *entity.Contributor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.contributors {
		if existing.ProjectID == c.ProjectID && existing.UserID == c.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	clone := *c
	r.contributors[c.ID] = &clone
	return nil
}

func (r memContributorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contributors, id)
	return nil
}

type memUserRepo struct{ *memStore }

func (r memUserRepo) Create(context.Context, *entity.User) error { return nil }

func (r memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r memUserRepo) FindByUsername(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r memUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r memUserRepo) Update(context.Context, *entity.User) error { return nil }
func (r memUserRepo) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }
func (r memUserRepo) CountAuthoredProjects(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (r memUserRepo) Delete(context.Context, uuid.UUID) error { return nil }

type noIssues struct{}

func (noIssues) FindInProject(context.Context, uuid.UUID, uuid.UUID) (*entity.Issue, error) {
	return nil, gorm.ErrRecordNotFound
}

func (noIssues) FindInIssue(context.Context, uuid.UUID, uuid.UUID) (*entity.Comment, error) {
	return nil, gorm.ErrRecordNotFound
}

type recordingIndex struct {
	deleted []string
}

func (r *recordingIndex) DeleteIssue(id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingIndex) IndexIssue(*entity.Issue) error { return nil }

func (r *recordingIndex) SearchIssues(uuid.UUID, string, int, int) ([]search.IssueDocument, int64, error) {
	return nil, 0, nil
}

type fixture struct {
	store        *memStore
	projects     ProjectService
	contributors ContributorService
	index        *recordingIndex
}

func newFixture() *fixture {
	store := newMemStore()
	resolver := scope.NewResolver(memProjectRepo{store}, memContributorRepo{store}, noIssues{}, noIssues{}, memContributorRepo{store})
	index := &recordingIndex{}
	return &fixture{
		store:        store,
		projects:     NewProjectService(memProjectRepo{store}, memUserRepo{store}, resolver, index),
		contributors: NewContributorService(memContributorRepo{store}, memUserRepo{store}, resolver),
		index:        index,
	}
}
