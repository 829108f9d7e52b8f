package handler

import (
	"errors"
	"fmt"
	"net/http"

	commentDto "anoa.com/softdesk/internal/modules/comment/dto"
	"anoa.com/softdesk/internal/modules/comment/service"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/ratelimiter"
	"anoa.com/softdesk/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommentHandler struct {
	service service.CommentService
}

func NewCommentHandler(service service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type path struct {
	userID    uuid.UUID
	projectID uuid.UUID
	issueID   uuid.UUID
	commentID uuid.UUID
}

// parsePath reads the actor and the path ids. On failure it has already
// written the response.
func parsePath(c *gin.Context, withComment bool) (path, bool) {
	var p path
	var err error

	if p.userID, err = response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return p, false
	}
	if p.projectID, err = response.ParamUUID(c, "project_id"); err != nil {
		response.ResponseError(c, err)
		return p, false
	}
	if p.issueID, err = response.ParamUUID(c, "issue_id"); err != nil {
		response.ResponseError(c, err)
		return p, false
	}
	if withComment {
		if p.commentID, err = response.ParamUUID(c, "comment_id"); err != nil {
			response.ResponseError(c, err)
			return p, false
		}
	}
	return p, true
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	p, ok := parsePath(c, false)
	if !ok {
		return
	}

	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), p.userID, p.projectID, p.issueID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	p, ok := parsePath(c, false)
	if !ok {
		return
	}

	var req commentDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), p.userID, p.projectID, p.issueID, req)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	p, ok := parsePath(c, true)
	if !ok {
		return
	}

	comment, err := h.service.GetComment(c.Request.Context(), p.userID, p.projectID, p.issueID, p.commentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// UpdateComment handles both PUT and PATCH.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	p, ok := parsePath(c, true)
	if !ok {
		return
	}

	var req commentDto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), p.userID, p.projectID, p.issueID, p.commentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	p, ok := parsePath(c, true)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), p.userID, p.projectID, p.issueID, p.commentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
