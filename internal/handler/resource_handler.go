package handler

import (
	"context"
	"net/http"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
	"github.com/noah-isme/gradadmin-api/internal/service"
	"github.com/noah-isme/gradadmin-api/pkg/response"
)

type resourceService[T any, P repository.EntityPtr[T]] interface {
	Kind() models.EntityKind
	Get(ctx context.Context, id string) (P, error)
	List(ctx context.Context, params service.ListParams) ([]T, *models.Pagination, error)
	Create(ctx context.Context, raw url.Values) (P, error)
	Update(ctx context.Context, id string, raw url.Values) (P, error)
	Delete(ctx context.Context, id string) error
	Dependents(ctx context.Context, id string) (*dto.DependentsReport, error)
}

// ResourceOptions customise a ResourceHandler.
type ResourceOptions[P any] struct {
	// Present renders a single entity, typically with its references populated.
	Present func(ctx context.Context, entity P) (interface{}, error)
	// Where turns extra query parameters into list conditions.
	Where func(c *gin.Context) ([]sq.Sqlizer, error)
	// Reserved query keys are excluded from the partial-match filter.
	Reserved []string
}

// ResourceHandler serves the CRUD endpoints of one entity kind.
type ResourceHandler[T any, P repository.EntityPtr[T]] struct {
	service resourceService[T, P]
	opts    ResourceOptions[P]
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler[T any, P repository.EntityPtr[T]](svc resourceService[T, P], opts ResourceOptions[P]) *ResourceHandler[T, P] {
	return &ResourceHandler[T, P]{service: svc, opts: opts}
}

// Register mounts the handler on rg.
func (h *ResourceHandler[T, P]) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/dependents", h.Dependents)
}

// List godoc
// @Summary List entities matching a partial filter
// @Description Any declared field may be passed as a query parameter. Search fields match case-insensitive substrings.
// @Tags Entities
// @Produce json
// @Param resource path string true "admins, faculty, students, courses, semesters, jobs, grades, forms or notes"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /{resource} [get]
func (h *ResourceHandler[T, P]) List(c *gin.Context) {
	var where []sq.Sqlizer
	if h.opts.Where != nil {
		var err error
		if where, err = h.opts.Where(c); err != nil {
			response.Error(c, err)
			return
		}
	}
	page, limit := paging(c)
	items, pagination, err := h.service.List(c.Request.Context(), service.ListParams{
		Filter:   filterValues(c, h.opts.Reserved...),
		Page:     page,
		PageSize: limit,
		Where:    where,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get an entity with its references populated
// @Tags Entities
// @Produce json
// @Param resource path string true "Resource"
// @Param id path string true "Entity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /{resource}/{id} [get]
func (h *ResourceHandler[T, P]) Get(c *gin.Context) {
	id, err := pathID(c, "id", string(h.service.Kind()))
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.present(c, http.StatusOK, entity)
}

// Create godoc
// @Summary Create an entity
// @Description Accepts a JSON object or a form post. Created entities are returned with their id.
// @Tags Entities
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param resource path string true "Resource"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /{resource} [post]
func (h *ResourceHandler[T, P]) Create(c *gin.Context) {
	raw, err := rawFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.service.Create(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entity, entity.Meta().ID)
}

// Update godoc
// @Summary Replace an entity
// @Description The stored record is replaced as a whole; omitted optional fields are cleared.
// @Tags Entities
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param resource path string true "Resource"
// @Param id path string true "Entity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /{resource}/{id} [put]
func (h *ResourceHandler[T, P]) Update(c *gin.Context) {
	id, err := pathID(c, "id", string(h.service.Kind()))
	if err != nil {
		response.Error(c, err)
		return
	}
	raw, err := rawFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entity, err := h.service.Update(c.Request.Context(), id, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.present(c, http.StatusOK, entity)
}

// Delete godoc
// @Summary Delete an entity
// @Description Refused with 409 while another entity references it.
// @Tags Entities
// @Param resource path string true "Resource"
// @Param id path string true "Entity ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /{resource}/{id} [delete]
func (h *ResourceHandler[T, P]) Delete(c *gin.Context) {
	id, err := pathID(c, "id", string(h.service.Kind()))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Dependents godoc
// @Summary List the relationships blocking deletion
// @Tags Entities
// @Produce json
// @Param resource path string true "Resource"
// @Param id path string true "Entity ID"
// @Success 200 {object} response.Envelope
// @Router /{resource}/{id}/dependents [get]
func (h *ResourceHandler[T, P]) Dependents(c *gin.Context) {
	id, err := pathID(c, "id", string(h.service.Kind()))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.service.Dependents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func (h *ResourceHandler[T, P]) present(c *gin.Context, status int, entity P) {
	if h.opts.Present == nil {
		response.JSON(c, status, entity, nil)
		return
	}
	view, err := h.opts.Present(c.Request.Context(), entity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, view, nil)
}
