package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	issueDto "anoa.com/softdesk/internal/modules/issue/dto"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/ratelimiter"
	"anoa.com/softdesk/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubIssueService struct {
	createFn func(ctx context.Context, actorID, projectID uuid.UUID, req issueDto.CreateIssueRequest) (*issueDto.IssueResponse, error)
	getFn    func(ctx context.Context, actorID, projectID, issueID uuid.UUID) (*issueDto.IssueResponse, error)
	searchFn func(ctx context.Context, actorID, projectID uuid.UUID, q issueDto.SearchIssuesQuery) (*commonDto.Paginated[issueDto.IssueSearchHit], error)
}

func (s *stubIssueService) ListIssues(context.Context, uuid.UUID, uuid.UUID, commonDto.PageQuery) (*commonDto.Paginated[issueDto.IssueResponse], error) {
	page := commonDto.NewPaginated[issueDto.IssueResponse](nil, 0, commonDto.PageQuery{}.Normalize())
	return &page, nil
}

func (s *stubIssueService) CreateIssue(ctx context.Context, actorID, projectID uuid.UUID, req issueDto.CreateIssueRequest) (*issueDto.IssueResponse, error) {
	return s.createFn(ctx, actorID, projectID, req)
}

func (s *stubIssueService) GetIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID) (*issueDto.IssueResponse, error) {
	return s.getFn(ctx, actorID, projectID, issueID)
}

func (s *stubIssueService) UpdateIssue(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, issueDto.UpdateIssueRequest) (*issueDto.IssueResponse, error) {
	return nil, nil
}

func (s *stubIssueService) DeleteIssue(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return nil
}

func (s *stubIssueService) SearchIssues(ctx context.Context, actorID, projectID uuid.UUID, q issueDto.SearchIssuesQuery) (*commonDto.Paginated[issueDto.IssueSearchHit], error) {
	return s.searchFn(ctx, actorID, projectID, q)
}

func newRouter(svc *stubIssueService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.UserIDKey, uuid.NewString())
		c.Next()
	})

	h := NewIssueHandler(svc)
	r.POST("/projects/:project_id/issues", h.CreateIssue)
	r.GET("/projects/:project_id/issues/search", h.SearchIssues)
	r.GET("/projects/:project_id/issues/:issue_id", h.GetIssue)
	return r
}

func TestCreateIssue_RateLimited(t *testing.T) {
	svc := &stubIssueService{
		createFn: func(ctx context.Context, actorID, projectID uuid.UUID, req issueDto.CreateIssueRequest) (*issueDto.IssueResponse, error) {
			return nil, &ratelimiter.RateLimitError{Message: "slow down", RetryAfter: 12 * time.Second}
		},
	}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/projects/"+uuid.NewString()+"/issues", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "12" {
		t.Fatalf("expected Retry-After 12, got %q", got)
	}
}

func TestCreateIssue_InvalidStatus(t *testing.T) {
	r := newRouter(&stubIssueService{})

	req := httptest.NewRequest(http.MethodPost, "/projects/"+uuid.NewString()+"/issues", strings.NewReader(`{"title":"x","status":"done"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetIssue_MalformedIDIsNotFound(t *testing.T) {
	r := newRouter(&stubIssueService{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+uuid.NewString()+"/issues/not-a-uuid", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSearchIssues_RoutesBeforeIssueID(t *testing.T) {
	called := false
	svc := &stubIssueService{
		searchFn: func(ctx context.Context, actorID, projectID uuid.UUID, q issueDto.SearchIssuesQuery) (*commonDto.Paginated[issueDto.IssueSearchHit], error) {
			called = true
			if q.Q != "crash" || q.Limit != 5 {
				t.Fatalf("unexpected query %+v", q)
			}
			page := commonDto.NewPaginated[issueDto.IssueSearchHit](nil, 0, q.PageQuery.Normalize())
			return &page, nil
		},
	}
	r := newRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/"+uuid.NewString()+"/issues/search?q=crash&limit=5", nil))

	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected search handler, got %d", rec.Code)
	}
}
