package repository

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/lib/pq"

	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/schema"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListQuery filters and pages a list read.
type ListQuery struct {
	// Match is a partial record: equality per field, substring for the search field,
	// membership for reference lists.
	Match    schema.Record
	Where    []sq.Sqlizer
	Page     int
	PageSize int
}

func (q ListQuery) bounds() (page, size int) {
	page, size = q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// EntityPtr constrains P to a pointer to the model T.
type EntityPtr[T any] interface {
	*T
	models.Entity
}

// Store implements the table operations shared by every entity kind.
type Store[T any, P EntityPtr[T]] struct {
	db     *sqlx.DB
	schema schema.Schema

	columns   []string
	insertSQL string
	updateSQL string
}

// NewStore builds a store for kind from its schema table.
func NewStore[T any, P EntityPtr[T]](db *sqlx.DB, kind models.EntityKind) *Store[T, P] {
	s := schema.MustFor(kind)
	cols := s.Columns()

	named := make([]string, len(cols))
	assignments := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
		assignments[i] = c + " = :" + c
	}

	return &Store[T, P]{
		db:      db,
		schema:  s,
		columns: append(append([]string{"id"}, cols...), "created_at", "updated_at"),
		insertSQL: fmt.Sprintf("INSERT INTO %s (id, %s, created_at, updated_at) VALUES (:id, %s, :created_at, :updated_at)",
			s.Table, strings.Join(cols, ", "), strings.Join(named, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s, updated_at = :updated_at WHERE id = :id",
			s.Table, strings.Join(assignments, ", ")),
	}
}

func (s *Store[T, P]) selectBuilder() sq.SelectBuilder {
	return psql.Select(s.columns...).From(s.schema.Table)
}

// FindByID fetches one entity; sql.ErrNoRows when absent.
func (s *Store[T, P]) FindByID(ctx context.Context, id string) (P, error) {
	query, args, err := s.selectBuilder().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var entity T
	if err := s.db.GetContext(ctx, &entity, query, args...); err != nil {
		return nil, err
	}
	return P(&entity), nil
}

// FindByIDs fetches every entity whose id is listed. Missing ids are ignored.
func (s *Store[T, P]) FindByIDs(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := s.selectBuilder().Where("id = ANY(?)", pq.Array(ids)).OrderBy("created_at").ToSql()
	if err != nil {
		return nil, err
	}
	var out []T
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", s.schema.Table, err)
	}
	return out, nil
}

// List returns one page of entities matching q and the total match count.
func (s *Store[T, P]) List(ctx context.Context, q ListQuery) ([]T, int, error) {
	where := append(s.conditions(q.Match), q.Where...)
	page, size := q.bounds()

	query, args, err := s.selectBuilder().
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	var items []T
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.schema.Table, err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(s.schema.Table).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.schema.Table, err)
	}
	return items, total, nil
}

// All returns every entity in creation order.
func (s *Store[T, P]) All(ctx context.Context) ([]T, error) {
	return s.FindWhere(ctx, nil)
}

// FindWhere returns every entity satisfying cond, or all entities when cond is nil.
func (s *Store[T, P]) FindWhere(ctx context.Context, cond sq.Sqlizer) ([]T, error) {
	builder := s.selectBuilder().OrderBy("created_at")
	if cond != nil {
		builder = builder.Where(cond)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	var out []T
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", s.schema.Table, err)
	}
	return out, nil
}

// FindMatching returns entities equal to candidate on every stored field, reference lists
// excluded. Absent optional references match NULL.
func (s *Store[T, P]) FindMatching(ctx context.Context, candidate P) ([]T, error) {
	v := reflect.Indirect(reflect.ValueOf(candidate))
	fields := make([]schema.Field, 0, len(s.schema.Fields))
	columns := make([]string, 0, len(s.schema.Fields))
	for _, f := range s.schema.Fields {
		if f.Type == schema.RefList {
			continue
		}
		fields = append(fields, f)
		columns = append(columns, f.Column)
	}

	eq := sq.Eq{}
	for i, path := range s.db.Mapper.TraversalsByName(v.Type(), columns) {
		if len(path) == 0 {
			return nil, fmt.Errorf("%s has no column %s", s.schema.Table, fields[i].Column)
		}
		eq[fields[i].Column] = reflectx.FieldByIndexesReadOnly(v, path).Interface()
	}
	if id := candidate.Meta().ID; id != "" {
		return s.FindWhere(ctx, sq.And{eq, sq.NotEq{"id": id}})
	}
	return s.FindWhere(ctx, eq)
}

// Create assigns an id when missing, stamps timestamps and inserts the entity.
func (s *Store[T, P]) Create(ctx context.Context, entity P) error {
	meta := entity.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	if _, err := s.db.NamedExecContext(ctx, s.insertSQL, entity); err != nil {
		return fmt.Errorf("create %s: %w", s.schema.Kind, err)
	}
	return nil
}

// Update replaces every stored field of the entity; sql.ErrNoRows when the id is unknown.
func (s *Store[T, P]) Update(ctx context.Context, entity P) error {
	entity.Meta().UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, s.updateSQL, entity)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.schema.Kind, err)
	}
	return requireAffected(res)
}

// Delete removes the entity; sql.ErrNoRows when the id is unknown.
func (s *Store[T, P]) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(s.schema.Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.schema.Kind, err)
	}
	return requireAffected(res)
}

func (s *Store[T, P]) conditions(match schema.Record) sq.And {
	where := sq.And{}
	for _, f := range s.schema.Fields {
		v, ok := match[f.Name]
		if !ok {
			continue
		}
		switch {
		case f.Type == schema.RefList:
			where = append(where, sq.Expr(fmt.Sprintf("?::uuid = ANY(%s)", f.Column), v))
		case f.Search:
			where = append(where, sq.ILike{f.Column: "%" + escapeLike(fmt.Sprint(v)) + "%"})
		default:
			where = append(where, sq.Eq{f.Column: v})
		}
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
