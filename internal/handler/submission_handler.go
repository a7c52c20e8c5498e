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

type SubmissionHandler struct {
	service service.SubmissionService
}

func NewSubmissionHandler(service service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// CreateSubmission handles the multipart assignment upload. Fields:
// class_id, feedback (optional note to the teacher) and file.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classID, err := uuid.Parse(c.PostForm("class_id"))
	if err != nil {
		response.BadRequest(c, "invalid class id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read file")
		return
	}
	defer file.Close()

	resp, err := h.service.Submit(c.Request.Context(), userID, classID, dto.SubmissionFile{
		Reader:   file,
		FileName: fileHeader.Filename,
	}, c.PostForm("feedback"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	var filter dto.SubmissionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *SubmissionHandler) ApproveSubmission(c *gin.Context) {
	h.decide(c, model.StatusApproved)
}

func (h *SubmissionHandler) RejectSubmission(c *gin.Context) {
	h.decide(c, model.StatusRejected)
}

func (h *SubmissionHandler) decide(c *gin.Context, outcome model.Status) {
	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), userID, submissionID, outcome)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
