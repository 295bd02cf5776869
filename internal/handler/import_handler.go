package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
	"github.com/noah-isme/gradadmin-api/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importService interface {
	Submit(ctx context.Context, kind models.EntityKind, filename string, r io.Reader) (*dto.ImportResult, error)
	Status(ctx context.Context, id string) (*dto.ImportJob, error)
	Template(kind models.EntityKind) ([]byte, error)
}

// ImportHandler accepts spreadsheet uploads.
type ImportHandler struct {
	service importService
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc importService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Register mounts the import endpoints.
func (h *ImportHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.GET("/templates/:kind", h.Template)
	rg.GET("/:id", h.Status)
}

// Submit godoc
// @Summary Import a spreadsheet
// @Description Small sheets are imported immediately and the report returned with 200. Larger sheets are queued; poll the returned job.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "course, job, faculty, semester or student"
// @Param file formData file true "xlsx or csv file"
// @Success 200 {object} response.Envelope{data=dto.ImportReport}
// @Success 202 {object} response.Envelope{data=dto.ImportJob}
// @Failure 400 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Submit(c *gin.Context) {
	kind, ok := models.ParseKind(c.PostForm("kind"))
	if !ok {
		response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "unknown import kind %q", c.PostForm("kind")))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.service.Submit(c.Request.Context(), kind, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Job != nil {
		c.Header("Location", c.Request.URL.Path+"/"+result.Job.ID)
		response.Accepted(c, result.Job)
		return
	}
	response.JSON(c, http.StatusOK, result.Report, nil)
}

// Status godoc
// @Summary Poll a queued import
// @Tags Imports
// @Produce json
// @Param id path string true "Import job ID"
// @Success 200 {object} response.Envelope{data=dto.ImportJob}
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	job, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Template godoc
// @Summary Download an empty import sheet
// @Tags Imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "Import kind"
// @Success 200 {file} file
// @Router /imports/templates/{kind} [get]
func (h *ImportHandler) Template(c *gin.Context) {
	kind, ok := models.ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c, appErrors.Clonef(appErrors.ErrNotFound, "unknown import kind %q", c.Param("kind")))
		return
	}
	data, err := h.service.Template(kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, fmt.Sprintf("%s-import.xlsx", kind), xlsxContentType, data)
}
