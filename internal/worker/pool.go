package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard-api/internal/model"
)

// Pool периодически находит просроченные задачи и пишет по ним напоминание
// в лог. Каждая задача обрабатывается ровно один раз (reminder_sent).
type Pool struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	count    int
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
}

func NewPool(pool *pgxpool.Pool, logger *zap.Logger, count int, interval time.Duration) *Pool {
	return &Pool{
		pool:     pool,
		logger:   logger,
		count:    count,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting overdue sweeper", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.logger.Info("Stopping overdue sweeper...")
	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Overdue sweeper stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.processNext(ctx, id); err != nil && err != pgx.ErrNoRows {
				p.logger.Error("sweeper error", zap.Int("worker", id), zap.Error(err))
			}
		}
	}
}

func (p *Pool) processNext(ctx context.Context, workerID int) error {
	task, err := p.claimOverdue(ctx)
	if err != nil {
		return err
	}

	p.logger.Warn("Task overdue",
		zap.Int("worker", workerID),
		zap.Int64("task_id", task.ID),
		zap.String("title", task.Title),
		zap.Int64("assigned_to", task.AssignedTo),
		zap.Timep("due_date", task.DueDate),
	)
	return nil
}

// claimOverdue забирает одну просроченную задачу; SKIP LOCKED защищает
// от двойного напоминания при нескольких воркерах.
func (p *Pool) claimOverdue(ctx context.Context) (model.Task, error) {
	var t model.Task

	err := p.pool.QueryRow(ctx, `
		WITH claimed AS (
			SELECT id
			FROM tasks
			WHERE due_date IS NOT NULL
			  AND due_date < now()
			  AND status <> 'completed'
			  AND NOT reminder_sent
			ORDER BY due_date
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE tasks
		SET reminder_sent = TRUE, updated_at = now()
		FROM claimed
		WHERE tasks.id = claimed.id
		RETURNING tasks.id, tasks.title, tasks.description, tasks.status, tasks.priority,
		          tasks.due_date, tasks.created_by, tasks.assigned_to,
		          tasks.created_at, tasks.updated_at
	`).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedBy, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	)

	return t, err
}
