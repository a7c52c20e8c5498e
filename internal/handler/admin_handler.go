package handler

import (
	"net/http"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/service"
	"github.com/earlypass/classpass-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler exposes the approval state machine and the repair operations
// to staff.
type AdminHandler struct {
	service service.ApprovalService
}

func NewAdminHandler(service service.ApprovalService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) ListApplications(c *gin.Context) {
	var filter dto.StatusFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.ListApplications(c.Request.Context(), model.Status(filter.Status))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *AdminHandler) ApproveApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	resp, err := h.service.ApproveApplication(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) RejectApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	resp, err := h.service.RejectApplication(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListProposals(c *gin.Context) {
	var filter dto.StatusFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.ListProposals(c.Request.Context(), model.Status(filter.Status))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *AdminHandler) ApproveProposal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	resp, err := h.service.ApproveProposal(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"class": resp})
}

func (h *AdminHandler) RejectProposal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}

	resp, err := h.service.RejectProposal(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RepairProposals re-materializes every approved proposal, recreating
// missing classes and enrollments.
func (h *AdminHandler) RepairProposals(c *gin.Context) {
	stats, err := h.service.RepairProposals(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RepairTeachers re-ensures role and activation for users with an approved
// teacher application.
func (h *AdminHandler) RepairTeachers(c *gin.Context) {
	fixed, err := h.service.RepairTeachers(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RepairTeachersResponse{Fixed: fixed})
}
