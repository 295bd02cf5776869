package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/pkg/response"
)

type studentRecordService interface {
	AddJob(ctx context.Context, studentID, jobID string) error
	RemoveJob(ctx context.Context, studentID, jobID string) error
	AddGrade(ctx context.Context, studentID, gradeID string) error
	RemoveGrade(ctx context.Context, studentID, gradeID string) error
	Forms(ctx context.Context, studentID string, page, size int) ([]models.Form, *models.Pagination, error)
	Notes(ctx context.Context, studentID string, page, size int) ([]models.Note, *models.Pagination, error)
}

// StudentHandler serves a student's job history, grades, forms and notes.
type StudentHandler struct {
	service studentRecordService
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(svc studentRecordService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// Register mounts the student sub-resources on the students group.
func (h *StudentHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/:id/jobs/:jobId", h.AddJob)
	rg.DELETE("/:id/jobs/:jobId", h.RemoveJob)
	rg.POST("/:id/grades/:gradeId", h.AddGrade)
	rg.DELETE("/:id/grades/:gradeId", h.RemoveGrade)
	rg.GET("/:id/forms", h.Forms)
	rg.GET("/:id/notes", h.Notes)
}

// AddJob godoc
// @Summary Add a job to a student's job history
// @Tags Students
// @Param id path string true "Student ID"
// @Param jobId path string true "Job ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/jobs/{jobId} [post]
func (h *StudentHandler) AddJob(c *gin.Context) {
	h.member(c, "jobId", models.KindJob, h.service.AddJob)
}

// RemoveJob godoc
// @Summary Remove a job from a student's job history
// @Tags Students
// @Param id path string true "Student ID"
// @Param jobId path string true "Job ID"
// @Success 204
// @Router /students/{id}/jobs/{jobId} [delete]
func (h *StudentHandler) RemoveJob(c *gin.Context) {
	h.member(c, "jobId", models.KindJob, h.service.RemoveJob)
}

// AddGrade godoc
// @Summary Add a grade to a student
// @Tags Students
// @Param id path string true "Student ID"
// @Param gradeId path string true "Grade ID"
// @Success 204
// @Router /students/{id}/grades/{gradeId} [post]
func (h *StudentHandler) AddGrade(c *gin.Context) {
	h.member(c, "gradeId", models.KindGrade, h.service.AddGrade)
}

// RemoveGrade godoc
// @Summary Remove a grade from a student
// @Tags Students
// @Param id path string true "Student ID"
// @Param gradeId path string true "Grade ID"
// @Success 204
// @Router /students/{id}/grades/{gradeId} [delete]
func (h *StudentHandler) RemoveGrade(c *gin.Context) {
	h.member(c, "gradeId", models.KindGrade, h.service.RemoveGrade)
}

// Forms godoc
// @Summary List the forms filed for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/forms [get]
func (h *StudentHandler) Forms(c *gin.Context) {
	id, err := pathID(c, "id", string(models.KindStudent))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := paging(c)
	forms, pagination, err := h.service.Forms(c.Request.Context(), id, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}

// Notes godoc
// @Summary List the notes attached to a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/notes [get]
func (h *StudentHandler) Notes(c *gin.Context) {
	id, err := pathID(c, "id", string(models.KindStudent))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit := paging(c)
	notes, pagination, err := h.service.Notes(c.Request.Context(), id, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, pagination)
}

func (h *StudentHandler) member(c *gin.Context, param string, kind models.EntityKind, apply func(context.Context, string, string) error) {
	studentID, err := pathID(c, "id", string(models.KindStudent))
	if err != nil {
		response.Error(c, err)
		return
	}
	memberID, err := pathID(c, param, string(kind))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := apply(c.Request.Context(), studentID, memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
