package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cirocosta/todo-api/internal/model"
)

const todosTable = "todos"

var todoColumns = []string{"id", "title", "description", "status", "created_at", "updated_at"}

// PostgresTodoRepository implements TodoRepository on a PostgreSQL connection pool.
// Each operation is a single statement, bounded by the configured timeout,
// which also covers waiting for a free connection.
type PostgresTodoRepository struct {
	db      *sqlx.DB
	timeout time.Duration
	builder sq.StatementBuilderType
}

// NewPostgresTodoRepository creates a repository over db. A zero timeout
// leaves operations bounded only by the caller's context.
func NewPostgresTodoRepository(db *sqlx.DB, timeout time.Duration) *PostgresTodoRepository {
	return &PostgresTodoRepository{
		db:      db,
		timeout: timeout,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresTodoRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func returning() string {
	return "RETURNING " + strings.Join(todoColumns, ", ")
}

// FindAll returns todos matching filter ordered by id
func (r *PostgresTodoRepository) FindAll(ctx context.Context, filter TodoFilter) ([]model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.builder.Select(todoColumns...).From(todosTable).OrderBy("id ASC")
	if filter.Status != nil {
		query = query.Where(sq.Eq{"status": string(*filter.Status)})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	todos := []model.Todo{}
	if err := r.db.SelectContext(ctx, &todos, stmt, args...); err != nil {
		return nil, classify("list todos", err)
	}

	return todos, nil
}

// FindByID returns a specific todo by ID
func (r *PostgresTodoRepository) FindByID(ctx context.Context, id int64) (model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	stmt, args, err := r.builder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Todo{}, fmt.Errorf("build find query: %w", err)
	}

	var todo model.Todo
	if err := r.db.GetContext(ctx, &todo, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrTodoNotFound{ID: id}
		}
		return model.Todo{}, classify(fmt.Sprintf("find todo %d", id), err)
	}

	return todo, nil
}

// Create inserts a todo and returns the stored row
func (r *PostgresTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	status := todo.Status
	if status == "" {
		status = model.StatusPending
	}

	stmt, args, err := r.builder.Insert(todosTable).
		Columns("title", "description", "status").
		Values(todo.Title, todo.Description, string(status)).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return model.Todo{}, fmt.Errorf("build insert: %w", err)
	}

	var created model.Todo
	if err := r.db.GetContext(ctx, &created, stmt, args...); err != nil {
		return model.Todo{}, classify("create todo", err)
	}

	return created, nil
}

// Update applies patch to the row with the given id
func (r *PostgresTodoRepository) Update(ctx context.Context, id int64, patch TodoPatch) (model.Todo, error) {
	if patch.Empty() {
		return model.Todo{}, ValidationError{Message: "no fields to update"}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.builder.Update(todosTable)
	if patch.Title != nil {
		query = query.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		query = query.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		query = query.Set("status", string(*patch.Status))
	}

	// GREATEST keeps updated_at monotonic even if the database clock steps back
	stmt, args, err := query.
		Set("updated_at", sq.Expr("GREATEST(now(), updated_at)")).
		Where(sq.Eq{"id": id}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return model.Todo{}, fmt.Errorf("build update: %w", err)
	}

	var updated model.Todo
	if err := r.db.GetContext(ctx, &updated, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrTodoNotFound{ID: id}
		}
		return model.Todo{}, classify(fmt.Sprintf("update todo %d", id), err)
	}

	return updated, nil
}

// Delete removes the row with the given id
func (r *PostgresTodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	stmt, args, err := r.builder.Delete(todosTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return classify(fmt.Sprintf("delete todo %d", id), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify(fmt.Sprintf("delete todo %d", id), err)
	}
	if n == 0 {
		return ErrTodoNotFound{ID: id}
	}

	return nil
}

// Ping checks that a connection can be acquired and answers
func (r *PostgresTodoRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// classify maps driver errors onto the repository error taxonomy. Both the
// pgx and lib/pq drivers are recognised.
func classify(op string, err error) error {
	code, column := sqlState(err)

	switch code {
	case "23514", "23502", "22001":
		return ValidationError{Field: column, Message: "violates a storage constraint"}
	}

	if isUnavailable(err, code) {
		return unavailable(op, err)
	}

	return &Error{Op: op, Err: err}
}

func sqlState(err error) (code, column string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ColumnName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Column
	}

	return "", ""
}

func isUnavailable(err error, code string) bool {
	// 08: connection exception, 57P: operator intervention (shutdown, restart)
	if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P") {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
