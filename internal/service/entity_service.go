package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/repository"
	"github.com/noah-isme/gradadmin-api/internal/schema"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

type entityStore[T any, P repository.EntityPtr[T]] interface {
	FindByID(ctx context.Context, id string) (P, error)
	List(ctx context.Context, q repository.ListQuery) ([]T, int, error)
	Create(ctx context.Context, entity P) error
	Update(ctx context.Context, entity P) error
	Delete(ctx context.Context, id string) error
}

type referenceChecker interface {
	MissingIDs(ctx context.Context, kind models.EntityKind, ids []string) ([]string, error)
}

// Rules customise the create/update pipeline of one entity kind. Every hook is optional.
type Rules[T any, P repository.EntityPtr[T]] struct {
	// Precheck inspects and may rewrite raw input before the required-field gate.
	Precheck func(raw url.Values) error
	Normalize func(entity P)
	Validate  func(entity P) error
	// Duplicate returns the id of another stored entity equivalent to entity, or "".
	Duplicate func(ctx context.Context, entity P) (string, error)
}

// ListParams carries a list request: a raw partial-match filter plus paging.
type ListParams struct {
	Filter   url.Values
	Page     int
	PageSize int
	Where    []sq.Sqlizer
}

// EntityService runs the create, read, update and delete workflows of one entity kind.
type EntityService[T any, P repository.EntityPtr[T]] struct {
	kind      models.EntityKind
	schema    schema.Schema
	store     entityStore[T, P]
	refs      referenceChecker
	guard     *IntegrityGuard
	rules     Rules[T, P]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEntityService constructs an EntityService for kind.
func NewEntityService[T any, P repository.EntityPtr[T]](kind models.EntityKind, store entityStore[T, P], refs referenceChecker, guard *IntegrityGuard, rules Rules[T, P], validate *validator.Validate, logger *zap.Logger) *EntityService[T, P] {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityService[T, P]{
		kind:      kind,
		schema:    schema.MustFor(kind),
		store:     store,
		refs:      refs,
		guard:     guard,
		rules:     rules,
		validator: validate,
		logger:    logger.With(zap.String("kind", string(kind))),
	}
}

// Kind reports the entity kind served.
func (s *EntityService[T, P]) Kind() models.EntityKind { return s.kind }

// Prepare turns raw input into a validated entity without persisting it.
func (s *EntityService[T, P]) Prepare(ctx context.Context, raw url.Values) (P, error) {
	input := cloneValues(raw)
	if s.rules.Precheck != nil {
		if err := s.rules.Precheck(input); err != nil {
			return nil, err
		}
	}
	if err := schema.RequireFields(input, s.schema); err != nil {
		return nil, err
	}
	rec, err := schema.Project(input, s.schema)
	if err != nil {
		return nil, err
	}

	entity := P(new(T))
	if err := schema.Decode(rec, entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "invalid "+string(s.kind)+" payload")
	}
	if s.rules.Normalize != nil {
		s.rules.Normalize(entity)
	}
	if err := s.validator.Struct(entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+string(s.kind)+" payload")
	}
	if s.rules.Validate != nil {
		if err := s.rules.Validate(entity); err != nil {
			return nil, err
		}
	}
	if err := s.checkReferences(ctx, rec); err != nil {
		return nil, err
	}
	return entity, nil
}

// FindDuplicate returns the id of a stored entity equivalent to entity, or "".
func (s *EntityService[T, P]) FindDuplicate(ctx context.Context, entity P) (string, error) {
	if s.rules.Duplicate == nil {
		return "", nil
	}
	id, err := s.rules.Duplicate(ctx, entity)
	if err != nil {
		return "", appErrors.Internal(err, "failed to check for duplicate "+string(s.kind))
	}
	return id, nil
}

// Insert persists a prepared entity.
func (s *EntityService[T, P]) Insert(ctx context.Context, entity P) error {
	if err := s.store.Create(ctx, entity); err != nil {
		return appErrors.Internal(err, "failed to create "+string(s.kind))
	}
	return nil
}

// Create validates raw input, refuses duplicates and inserts the entity.
func (s *EntityService[T, P]) Create(ctx context.Context, raw url.Values) (P, error) {
	entity, err := s.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	existing, err := s.FindDuplicate(ctx, entity)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, appErrors.Clonef(appErrors.ErrDuplicateEntity, "%s already exists", s.kind)
	}
	if err := s.Insert(ctx, entity); err != nil {
		return nil, err
	}
	s.logger.Info("entity created", zap.String("id", entity.Meta().ID))
	return entity, nil
}

// ImportEntity prepares raw, skips the insert when an equivalent entity exists and
// returns the id of the stored entity either way.
func (s *EntityService[T, P]) ImportEntity(ctx context.Context, raw url.Values) (string, bool, error) {
	entity, err := s.Prepare(ctx, raw)
	if err != nil {
		return "", false, err
	}
	existing, err := s.FindDuplicate(ctx, entity)
	if err != nil {
		return "", false, err
	}
	if existing != "" {
		return existing, false, nil
	}
	if err := s.Insert(ctx, entity); err != nil {
		return "", false, err
	}
	return entity.Meta().ID, true, nil
}

// Get loads one entity.
func (s *EntityService[T, P]) Get(ctx context.Context, id string) (P, error) {
	entity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, "load")
	}
	return entity, nil
}

// List returns entities matching the partial filter.
func (s *EntityService[T, P]) List(ctx context.Context, params ListParams) ([]T, *models.Pagination, error) {
	match, err := schema.ProjectPartial(params.Filter, s.schema)
	if err != nil {
		return nil, nil, err
	}
	q := repository.ListQuery{Match: match, Where: params.Where, Page: params.Page, PageSize: params.PageSize}
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list "+string(s.kind))
	}
	if items == nil {
		items = []T{}
	}
	page, size := pageBounds(params.Page, params.PageSize)
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update replaces the whole stored record of id with raw.
func (s *EntityService[T, P]) Update(ctx context.Context, id string, raw url.Values) (P, error) {
	entity, err := s.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	entity.Meta().ID = id
	existing, err := s.FindDuplicate(ctx, entity)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, appErrors.Clonef(appErrors.ErrDuplicateEntity, "%s already exists", s.kind)
	}
	if err := s.store.Update(ctx, entity); err != nil {
		return nil, s.mapLookupError(err, "update")
	}
	return s.Get(ctx, id)
}

// Delete removes id once no other entity references it.
func (s *EntityService[T, P]) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.Check(ctx, s.kind, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapLookupError(err, "delete")
	}
	s.logger.Info("entity deleted", zap.String("id", id))
	return nil
}

// Dependents reports every relationship that currently references id.
func (s *EntityService[T, P]) Dependents(ctx context.Context, id string) (*dto.DependentsReport, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	violations, err := s.guard.Violations(ctx, s.kind, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check references")
	}
	return &dto.DependentsReport{Kind: s.kind, ID: id, Deletable: len(violations) == 0, Violations: violations}, nil
}

func (s *EntityService[T, P]) checkReferences(ctx context.Context, rec schema.Record) error {
	if s.refs == nil {
		return nil
	}
	for _, f := range s.schema.Fields {
		var ids []string
		switch v := rec[f.Name].(type) {
		case string:
			if f.Type == schema.Ref {
				ids = []string{v}
			}
		case []string:
			ids = v
		}
		if len(ids) == 0 {
			continue
		}
		missing, err := s.refs.MissingIDs(ctx, f.RefKind, ids)
		if err != nil {
			return appErrors.Internal(err, "failed to check references")
		}
		if len(missing) > 0 {
			return appErrors.Clonef(appErrors.ErrValidation, "%s: unknown %s %s", f.Name, f.RefKind, strings.Join(missing, ", "))
		}
	}
	return nil
}

func (s *EntityService[T, P]) mapLookupError(err error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clonef(appErrors.ErrNotFound, "%s not found", s.kind)
	}
	return appErrors.Internal(err, "failed to "+action+" "+string(s.kind))
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func cloneValues(raw url.Values) url.Values {
	out := make(url.Values, len(raw))
	for k, v := range raw {
		out[k] = append([]string(nil), v...)
	}
	return out
}
