package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
)

const taskColumns = "id, title, description, status, priority, due_date, created_by, assigned_to, created_at, updated_at"

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedBy, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, due_date, created_by, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CreatedBy, t.AssignedTo,
	)
	created, err := scanTask(row)
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1", id))

	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}

// buildWhere собирает WHERE из фильтра. Владение - это OR по двум колонкам,
// поиск - регистронезависимая подстрока в названии или описании.
func buildWhere(f model.TaskFilter, args *[]interface{}) string {
	var conds []string

	add := func(v interface{}) int {
		*args = append(*args, v)
		return len(*args)
	}

	if f.OwnerID != nil {
		n := add(*f.OwnerID)
		conds = append(conds, fmt.Sprintf("(created_by = $%d OR assigned_to = $%d)", n, n))
	}
	if f.Status != nil {
		n := add(*f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", n))
	}
	if f.Priority != nil {
		n := add(*f.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", n))
	}
	if f.Search != "" {
		n := add("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter, skip, limit int) ([]model.Task, error) {
	args := make([]interface{}, 0, 6)
	query := "SELECT " + taskColumns + " FROM tasks" + buildWhere(filter, &args)

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Count(ctx context.Context, filter model.TaskFilter) (int, error) {
	args := make([]interface{}, 0, 4)
	query := "SELECT COUNT(*) FROM tasks" + buildWhere(filter, &args)

	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *TaskRepo) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	set := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
		// Срок сдвинули - напоминание должно уйти заново.
		set = append(set, "reminder_sent = FALSE")
	}
	if patch.AssignedTo != nil {
		add("assigned_to", *patch.AssignedTo)
	}

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $1 RETURNING %s",
		strings.Join(set, ", "), taskColumns,
	)

	t, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	countBy := func(field string, dst map[string]int) error {
		rows, err := r.pool.Query(ctx,
			fmt.Sprintf("SELECT %s, COUNT(*) FROM tasks GROUP BY %s", field, field))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				return err
			}
			dst[key] = count
		}
		return rows.Err()
	}

	if err := countBy("status", stats.ByStatus); err != nil {
		return stats, err
	}
	if err := countBy("priority", stats.ByPriority); err != nil {
		return stats, err
	}
	for _, c := range stats.ByStatus {
		stats.TotalTasks += c
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE due_date IS NOT NULL AND due_date < now() AND status <> 'completed'
	`).Scan(&stats.OverdueTasks)

	return stats, err
}
