package handler

import (
	"net/http"

	projectDto "anoa.com/softdesk/internal/modules/project/dto"
	"anoa.com/softdesk/internal/modules/project/service"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/response"
	"github.com/gin-gonic/gin"
)

type ContributorHandler struct {
	service service.ContributorService
}

func NewContributorHandler(service service.ContributorService) *ContributorHandler {
	return &ContributorHandler{service: service}
}

func (h *ContributorHandler) ListContributors(c *gin.Context) {
	var q commonDto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	projectID, err := response.ParamUUID(c, "project_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	contributors, err := h.service.ListContributors(c.Request.Context(), userID, projectID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, contributors)
}

func (h *ContributorHandler) AddContributor(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	projectID, err := response.ParamUUID(c, "project_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req projectDto.AddContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	contributor, err := h.service.AddContributor(c.Request.Context(), userID, projectID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contributor)
}

func (h *ContributorHandler) GetContributor(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	projectID, err := response.ParamUUID(c, "project_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	contributorID, err := response.ParamUUID(c, "contributor_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	contributor, err := h.service.GetContributor(c.Request.Context(), userID, projectID, contributorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, contributor)
}

func (h *ContributorHandler) RemoveContributor(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	projectID, err := response.ParamUUID(c, "project_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	contributorID, err := response.ParamUUID(c, "contributor_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RemoveContributor(c.Request.Context(), userID, projectID, contributorID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
