package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/pkg/logger"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const issuesIndex = "issues"

type MeiliSearchService interface {
	IndexIssue(issue *entity.Issue) error
	DeleteIssue(id string) error
	SearchIssues(projectID uuid.UUID, query string, limit, offset int) ([]IssueDocument, int64, error)
}

// IssueDocument is the shape stored in the issues index.
type IssueDocument struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	AuthorID  string `json:"author_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Tag       string `json:"tag"`
	CreatedAt int64  `json:"created_at"`
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	log := logger.Get()

	filterable := []any{"project_id", "status", "priority", "tag"}
	if _, err := s.client.Index(issuesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update issues filterable attributes")
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(issuesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Warn().Err(err).Msg("failed to update issues sortable attributes")
	}

	log.Info().Msg("meilisearch indexes initialized")
}

// cleanContent strips markup so only the visible text is indexed.
func (s *meiliSearchService) cleanContent(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleaned := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleaned), " ")
}

func (s *meiliSearchService) toDocument(issue *entity.Issue) IssueDocument {
	doc := IssueDocument{
		ID:        issue.ID.String(),
		ProjectID: issue.ProjectID.String(),
		Title:     s.cleanContent(issue.Title),
		Content:   s.cleanContent(issue.Content),
		Status:    issue.Status,
		Priority:  issue.Priority,
		Tag:       issue.Tag,
		CreatedAt: issue.CreatedAt.Unix(),
	}
	if issue.AuthorID != nil {
		doc.AuthorID = issue.AuthorID.String()
	}
	return doc
}

func (s *meiliSearchService) IndexIssue(issue *entity.Issue) error {
	doc := s.toDocument(issue)

	task, err := s.client.Index(issuesIndex).AddDocuments([]IssueDocument{doc}, strPtr("id"))
	if err != nil {
		return err
	}

	log := logger.Get()
	log.Debug().Str("issue_id", doc.ID).Int64("task_uid", task.TaskUID).Msg("indexed issue")
	return nil
}

func (s *meiliSearchService) DeleteIssue(id string) error {
	_, err := s.client.Index(issuesIndex).DeleteDocument(id)
	return err
}

type issueSearchResult struct {
	Hits               []IssueDocument `json:"hits"`
	EstimatedTotalHits int64           `json:"estimatedTotalHits"`
}

// SearchIssues runs a full-text query restricted to one project.
func (s *meiliSearchService) SearchIssues(projectID uuid.UUID, query string, limit, offset int) ([]IssueDocument, int64, error) {
	raw, err := s.client.Index(issuesIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter: fmt.Sprintf("project_id = %q", projectID.String()),
		Limit:  int64(limit),
		Offset: int64(offset),
		Sort:   []string{"created_at:desc"},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	var result issueSearchResult
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search result: %w", err)
	}

	if result.Hits == nil {
		result.Hits = []IssueDocument{}
	}
	return result.Hits, result.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
