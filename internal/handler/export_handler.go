package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradadmin-api/internal/service"
	"github.com/noah-isme/gradadmin-api/pkg/response"
)

type exportService interface {
	Courses(ctx context.Context, format string) (*service.ExportFile, error)
	Students(ctx context.Context, format string) (*service.ExportFile, error)
}

// ExportHandler streams list views as downloadable documents.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Courses godoc
// @Summary Export courses
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /courses/export [get]
func (h *ExportHandler) Courses(c *gin.Context) {
	h.send(c, h.service.Courses)
}

// Students godoc
// @Summary Export students
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /students/export [get]
func (h *ExportHandler) Students(c *gin.Context) {
	h.send(c, h.service.Students)
}

func (h *ExportHandler) send(c *gin.Context, build func(context.Context, string) (*service.ExportFile, error)) {
	file, err := build(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
