package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"anoa.com/softdesk/internal/entity"
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
	comments map[uuid.UUID]*entity.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*entity.User{},
		projects: map[uuid.UUID]*entity.Project{},
		members:  map[uuid.UUID]map[uuid.UUID]bool{},
		issues:   map[uuid.UUID]*entity.Issue{},
		comments: map[uuid.UUID]*entity.Comment{},
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
	p := &entity.Project{ID: uuid.New(), AuthorID: author}
	m.projects[p.ID] = p
	m.members[p.ID] = map[uuid.UUID]bool{author: true}
	for _, id := range members {
		m.members[p.ID][id] = true
	}
	return p
}

func (m *memStore) addIssue(projectID, author uuid.UUID) *entity.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := &entity.Issue{ID: uuid.New(), ProjectID: projectID, AuthorID: &author, Title: "issue"}
	m.issues[i.ID] = i
	return i
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

type memIssues struct{ *memStore }

func (r memIssues) FindInProject(_ context.Context, projectID, issueID uuid.UUID) (*entity.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.issues[issueID]
	if !ok || i.ProjectID != projectID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *i
	return &clone, nil
}

type noContributors struct{}

func (noContributors) FindInProject(context.Context, uuid.UUID, uuid.UUID) (*entity.Contributor, error) {
	return nil, gorm.ErrRecordNotFound
}

type memCommentRepo struct{ *memStore }

func (r memCommentRepo) Create(_ context.Context, c *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[c.IssueID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.comments[c.ID] = &clone
	return nil
}

func (r memCommentRepo) withAuthor(c *entity.Comment) *entity.Comment {
	clone := *c
	if c.AuthorID != nil {
		if u, ok := r.users[*c.AuthorID]; ok {
			author := *u
			clone.Author = &author
		}
	}
	return &clone
}

func (r memCommentRepo) FindInIssue(_ context.Context, issueID, commentID uuid.UUID) (*entity.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok || c.IssueID != issueID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withAuthor(c), nil
}

func (r memCommentRepo) ListReadable(_ context.Context, issueID, actorID uuid.UUID, offset, limit int) ([]*entity.Comment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue := r.issues[issueID]
	project := r.projects[issue.ProjectID]
	var out []*entity.Comment
	for _, c := range r.comments {
		if c.IssueID != issueID {
			continue
		}
		own := c.AuthorID != nil && *c.AuthorID == actorID
		if own || project.AuthorID == actorID || r.members[project.ID][actorID] {
			out = append(out, r.withAuthor(c))
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

func (r memCommentRepo) Update(_ context.Context, c *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	clone.Author = nil
	r.comments[c.ID] = &clone
	return nil
}

func (r memCommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

func newFixture() (*memStore, CommentService) {
	store := newMemStore()
	resolver := scope.NewResolver(store, store, memIssues{store}, memCommentRepo{store}, noContributors{})
	return store, NewCommentService(memCommentRepo{store}, resolver, nil, 0)
}
