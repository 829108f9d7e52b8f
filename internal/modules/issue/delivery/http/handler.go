package handler

import (
	"errors"
	"fmt"
	"net/http"

	issueDto "anoa.com/softdesk/internal/modules/issue/dto"
	"anoa.com/softdesk/internal/modules/issue/service"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/ratelimiter"
	"anoa.com/softdesk/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IssueHandler struct {
	service service.IssueService
}

func NewIssueHandler(service service.IssueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// ids reads the actor and the project id, and the issue id when withIssue is
// set. It writes the error response itself and reports false on failure.
func ids(c *gin.Context, withIssue bool) (userID, projectID, issueID uuid.UUID, ok bool) {
	var err error
	if userID, err = response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}
	if projectID, err = response.ParamUUID(c, "project_id"); err != nil {
		response.ResponseError(c, err)
		return
	}
	if withIssue {
		if issueID, err = response.ParamUUID(c, "issue_id"); err != nil {
			response.ResponseError(c, err)
			return
		}
	}
	return userID, projectID, issueID, true
}

func (h *IssueHandler) ListIssues(c *gin.Context) {
	userID, projectID, _, ok := ids(c, false)
	if !ok {
		return
	}

	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	issues, err := h.service.ListIssues(c.Request.Context(), userID, projectID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	userID, projectID, _, ok := ids(c, false)
	if !ok {
		return
	}

	var req issueDto.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	issue, err := h.service.CreateIssue(c.Request.Context(), userID, projectID, req)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) GetIssue(c *gin.Context) {
	userID, projectID, issueID, ok := ids(c, true)
	if !ok {
		return
	}

	issue, err := h.service.GetIssue(c.Request.Context(), userID, projectID, issueID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

// UpdateIssue handles both PUT and PATCH.
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	userID, projectID, issueID, ok := ids(c, true)
	if !ok {
		return
	}

	var req issueDto.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	issue, err := h.service.UpdateIssue(c.Request.Context(), userID, projectID, issueID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	userID, projectID, issueID, ok := ids(c, true)
	if !ok {
		return
	}

	if err := h.service.DeleteIssue(c.Request.Context(), userID, projectID, issueID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *IssueHandler) SearchIssues(c *gin.Context) {
	userID, projectID, _, ok := ids(c, false)
	if !ok {
		return
	}

	var q issueDto.SearchIssuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	results, err := h.service.SearchIssues(c.Request.Context(), userID, projectID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
