package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

// Dependency is one relationship through which a dependent kind references another entity.
type Dependency struct {
	Kind models.EntityKind
	Path string
}

// dependencies lists, per referenced kind, who may point at it. Order is the evaluation order.
var dependencies = map[models.EntityKind][]Dependency{
	models.KindCourse: {
		{Kind: models.KindStudent, Path: "grades.course"},
		{Kind: models.KindJob, Path: "course"},
		{Kind: models.KindGrade, Path: "course"},
	},
	models.KindJob: {
		{Kind: models.KindStudent, Path: "jobHistory"},
	},
	models.KindFaculty: {
		{Kind: models.KindStudent, Path: "advisor"},
		{Kind: models.KindCourse, Path: "faculty"},
		{Kind: models.KindJob, Path: "supervisor"},
	},
	models.KindSemester: {
		{Kind: models.KindStudent, Path: "semesterStarted"},
		{Kind: models.KindCourse, Path: "semester"},
		{Kind: models.KindJob, Path: "semester"},
	},
	models.KindGrade: {
		{Kind: models.KindStudent, Path: "grades"},
	},
	models.KindStudent: {
		{Kind: models.KindForm, Path: "student"},
		{Kind: models.KindNote, Path: "student"},
	},
}

// Dependencies returns the declared dependents of kind in evaluation order.
func Dependencies(kind models.EntityKind) []Dependency {
	return dependencies[kind]
}

type referenceCounter interface {
	CountReferences(ctx context.Context, dependent models.EntityKind, path, id string) (int, error)
}

// IntegrityGuard decides whether an entity may be deleted.
type IntegrityGuard struct {
	refs   referenceCounter
	logger *zap.Logger
}

// NewIntegrityGuard constructs an IntegrityGuard.
func NewIntegrityGuard(refs referenceCounter, logger *zap.Logger) *IntegrityGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityGuard{refs: refs, logger: logger}
}

// CanDelete evaluates the dependents of kind in order and stops at the first one that
// references id.
func (g *IntegrityGuard) CanDelete(ctx context.Context, kind models.EntityKind, id string) (dto.Decision, error) {
	for _, dep := range dependencies[kind] {
		count, err := g.refs.CountReferences(ctx, dep.Kind, dep.Path, id)
		if err != nil {
			return dto.Decision{}, err
		}
		if count > 0 {
			return dto.Decision{Allowed: false, BlockingKind: dep.Kind, Path: dep.Path}, nil
		}
	}
	return dto.Decision{Allowed: true}, nil
}

// Violations evaluates every dependent of kind and reports each one that references id.
func (g *IntegrityGuard) Violations(ctx context.Context, kind models.EntityKind, id string) ([]dto.Violation, error) {
	violations := make([]dto.Violation, 0)
	for _, dep := range dependencies[kind] {
		count, err := g.refs.CountReferences(ctx, dep.Kind, dep.Path, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			violations = append(violations, dto.Violation{Kind: dep.Kind, Path: dep.Path, Count: count})
		}
	}
	return violations, nil
}

// Check returns a REFERENTIAL_INTEGRITY_VIOLATION naming the first blocking dependent.
func (g *IntegrityGuard) Check(ctx context.Context, kind models.EntityKind, id string) error {
	decision, err := g.CanDelete(ctx, kind, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check references")
	}
	if decision.Allowed {
		return nil
	}
	g.logger.Info("delete blocked",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("blocking_kind", string(decision.BlockingKind)),
		zap.String("path", decision.Path))
	return appErrors.Clonef(appErrors.ErrReferentialIntegrity, "cannot delete %s because %s is referencing it", kind, decision.BlockingKind)
}
