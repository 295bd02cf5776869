package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/schema"
)

// ReferenceRepository counts rows of one kind that reference a given entity id.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// CountReferences counts dependent rows whose path resolves to id. A path is a reference
// field of dependent, optionally followed by one reference field of the referenced kind
// (for example "grades.course").
func (r *ReferenceRepository) CountReferences(ctx context.Context, dependent models.EntityKind, path, id string) (int, error) {
	cond, table, err := ReferenceCondition(dependent, path, id)
	if err != nil {
		return 0, err
	}
	query, args, err := psql.Select("COUNT(*)").From(table + " d").Where(cond).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count %s referencing via %s: %w", dependent, path, err)
	}
	return count, nil
}

// ReferenceCondition builds the predicate selecting rows of dependent (aliased d) whose
// path points at id, and returns the dependent table name.
func ReferenceCondition(dependent models.EntityKind, path, id string) (sq.Sqlizer, string, error) {
	outer, ok := schema.For(dependent)
	if !ok {
		return nil, "", fmt.Errorf("unknown entity kind %s", dependent)
	}
	segments := strings.Split(path, ".")
	if len(segments) > 2 {
		return nil, "", fmt.Errorf("reference path %s nests more than one level", path)
	}

	first, err := referenceField(outer, segments[0])
	if err != nil {
		return nil, "", err
	}
	if len(segments) == 1 {
		return sq.Expr(refMatch("d."+first.Column, first.Type, "?::uuid"), id), outer.Table, nil
	}

	inner := schema.MustFor(first.RefKind)
	second, err := referenceField(inner, segments[1])
	if err != nil {
		return nil, "", err
	}
	link := refMatch("d."+first.Column, first.Type, "i.id")
	if second.Type == schema.RefList {
		return nil, "", fmt.Errorf("reference path %s ends in a list", path)
	}
	expr := fmt.Sprintf("EXISTS (SELECT 1 FROM %s i WHERE i.%s = ?::uuid AND %s)", inner.Table, second.Column, link)
	return sq.Expr(expr, id), outer.Table, nil
}

func referenceField(s schema.Schema, name string) (schema.Field, error) {
	f, ok := s.Field(name)
	if !ok || (f.Type != schema.Ref && f.Type != schema.RefList) {
		return schema.Field{}, fmt.Errorf("%s has no reference field %s", s.Kind, name)
	}
	return f, nil
}

// refMatch renders column-points-at-value for single references and lists.
func refMatch(column string, typ schema.FieldType, value string) string {
	if typ == schema.RefList {
		return fmt.Sprintf("%s = ANY(%s)", value, column)
	}
	return fmt.Sprintf("%s = %s", column, value)
}

// MissingIDs returns the ids that have no row of kind.
func (r *ReferenceRepository) MissingIDs(ctx context.Context, kind models.EntityKind, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	s, ok := schema.For(kind)
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %s", kind)
	}
	query, args, err := psql.Select("id").From(s.Table).Where("id = ANY(?)", pq.Array(ids)).ToSql()
	if err != nil {
		return nil, err
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("check %s ids: %w", kind, err)
	}
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
