// Package store provides a bun-based SQLite storage implementation of
// the queuectl repository interfaces.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/queuectl/queuectl"
	"github.com/queuectl/queuectl/job"
)

// Repository implements queuectl.Enqueuer, queuectl.Claimer,
// queuectl.Observer, queuectl.Reaper, and queuectl.Pruner against a
// single SQLite database shared by multiple OS processes.
//
// Mutating operations run against DB's write handle. ClaimOne and Fail,
// which read a row before updating it, do so inside an immediate
// transaction so the write lock is acquired at BEGIN, not at first
// write; the other mutations are single statements. Read-only
// operations run against the read handle and may proceed concurrently
// under WAL.
type Repository struct {
	db *DB
}

// NewRepository returns a Repository backed by db.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Enqueue implements queuectl.Enqueuer.
func (r *Repository) Enqueue(ctx context.Context, spec queuectl.JobSpec) (*job.Job, error) {
	if strings.TrimSpace(spec.ID) == "" || strings.TrimSpace(spec.Command) == "" {
		return nil, queuectl.ErrInvalidSpec
	}
	if spec.TimeoutSeconds < 0 {
		return nil, queuectl.ErrInvalidSpec
	}
	if spec.BaseBackoff != nil && *spec.BaseBackoff <= 0 {
		return nil, queuectl.ErrInvalidSpec
	}

	now := time.Now().UTC()
	availableAt := now
	if spec.RunAt != nil {
		availableAt = spec.RunAt.UTC()
	}

	maxRetries := uint32(3)
	if spec.MaxRetries != nil {
		maxRetries = *spec.MaxRetries
	}
	baseBackoff := 2.0
	if spec.BaseBackoff != nil {
		baseBackoff = *spec.BaseBackoff
	}

	model := fromSpec(spec.ID, spec.Command, maxRetries, baseBackoff, spec.Priority, spec.TimeoutSeconds, availableAt, now)

	_, err := r.db.write.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, queuectl.ErrDuplicateID
		}
		return nil, err
	}
	return model.toJob()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ClaimOne implements queuectl.Claimer.
func (r *Repository) ClaimOne(ctx context.Context, workerID string, now time.Time) (*job.Job, error) {
	tx, err := r.db.write.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return nil, queuectl.ErrStoreBusy
		}
		return nil, err
	}
	defer tx.Rollback()

	var candidate jobModel
	err = tx.NewSelect().
		Model(&candidate).
		Where("state = ?", job.Pending.String()).
		Where("available_at <= ?", now).
		Order("priority DESC", "created_at ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tx.Commit()
		}
		if isBusy(err) {
			return nil, queuectl.ErrStoreBusy
		}
		return nil, err
	}

	res, err := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Processing.String()).
		Set("started_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", candidate.ID).
		Where("state = ?", job.Pending.String()).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if !isAffected(res) {
		// Lost a race with another process between select and update;
		// treat as no claim this tick rather than retrying in-process.
		return nil, tx.Commit()
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	candidate.State = job.Processing.String()
	candidate.StartedAt = &now
	candidate.UpdatedAt = now
	return candidate.toJob()
}

// Complete implements queuectl.Claimer.
func (r *Repository) Complete(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.write.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Completed.String()).
		Set("finished_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Processing.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return queuectl.ErrNotFound
	}
	return nil
}

// Fail implements queuectl.Claimer.
func (r *Repository) Fail(ctx context.Context, id string, now time.Time, errMsg string) error {
	tx, err := r.db.write.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return queuectl.ErrStoreBusy
		}
		return err
	}
	defer tx.Rollback()

	var current jobModel
	err = tx.NewSelect().
		Model(&current).
		Where("id = ?", id).
		Where("state = ?", job.Processing.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queuectl.ErrNotFound
		}
		return err
	}

	attempts := current.Attempts + 1
	q := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("attempts = ?", attempts).
		Set("last_error = ?", errMsg).
		Set("updated_at = ?", now).
		Where("id = ?", id)

	if attempts > current.MaxRetries {
		q = q.Set("state = ?", job.Dead.String()).Set("finished_at = ?", now)
	} else {
		delay := queuectl.ComputeDelay(current.BaseBackoff, attempts)
		q = q.Set("state = ?", job.Pending.String()).
			Set("available_at = ?", now.Add(delay)).
			Set("started_at = NULL")
	}

	if _, err := q.Exec(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// DLQRetry implements queuectl.Claimer.
func (r *Repository) DLQRetry(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.write.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Pending.String()).
		Set("attempts = 0").
		Set("available_at = ?", now).
		Set("started_at = NULL").
		Set("finished_at = NULL").
		Set("last_error = ''").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Dead.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	if isAffected(res) {
		return nil
	}

	exists, err := r.db.read.NewSelect().Model((*jobModel)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return queuectl.ErrNotFound
	}
	return queuectl.ErrNotDead
}

// Get implements queuectl.Observer.
func (r *Repository) Get(ctx context.Context, id string) (*job.Job, error) {
	var model jobModel
	err := r.db.read.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return model.toJob()
}

// List implements queuectl.Observer.
func (r *Repository) List(ctx context.Context, state job.State) ([]*job.Job, error) {
	var models []*jobModel
	q := r.db.read.NewSelect().Model(&models).Order("created_at ASC")
	if state != job.Unknown {
		q = q.Where("state = ?", state.String())
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.Job, 0, len(models))
	for _, m := range models {
		jb, err := m.toJob()
		if err != nil {
			return nil, err
		}
		ret = append(ret, jb)
	}
	return ret, nil
}

// StatusSummary implements queuectl.Observer.
func (r *Repository) StatusSummary(ctx context.Context) (queuectl.Summary, error) {
	var rows []struct {
		State string
		Count int64
	}
	err := r.db.read.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("state").
		ColumnExpr("count(*) AS count").
		Group("state").
		Scan(ctx, &rows)
	if err != nil {
		return queuectl.Summary{}, err
	}
	var sum queuectl.Summary
	for _, row := range rows {
		state, err := job.ParseState(row.State)
		if err != nil {
			return queuectl.Summary{}, err
		}
		switch state {
		case job.Pending:
			sum.Pending = row.Count
		case job.Processing:
			sum.Processing = row.Count
		case job.Completed:
			sum.Completed = row.Count
		case job.Dead:
			sum.Dead = row.Count
		}
	}
	return sum, nil
}

// Metrics implements queuectl.Observer.
func (r *Repository) Metrics(ctx context.Context) (queuectl.Metrics, error) {
	var total, completed, dead int64
	var err error
	if total, err = r.db.read.NewSelect().Model((*jobModel)(nil)).Count(ctx); err != nil {
		return queuectl.Metrics{}, err
	}
	if completed, err = r.db.read.NewSelect().Model((*jobModel)(nil)).Where("state = ?", job.Completed.String()).Count(ctx); err != nil {
		return queuectl.Metrics{}, err
	}
	if dead, err = r.db.read.NewSelect().Model((*jobModel)(nil)).Where("state = ?", job.Dead.String()).Count(ctx); err != nil {
		return queuectl.Metrics{}, err
	}

	var attemptsRow struct {
		Mean sql.NullFloat64
	}
	if err := r.db.read.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("avg(attempts) AS mean").
		Where("state != ?", job.Pending.String()).
		Scan(ctx, &attemptsRow); err != nil {
		return queuectl.Metrics{}, err
	}

	var durationRow struct {
		Mean sql.NullFloat64
	}
	if err := r.db.read.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("avg(julianday(finished_at) - julianday(started_at)) * 86400 AS mean").
		Where("state = ?", job.Completed.String()).
		Scan(ctx, &durationRow); err != nil {
		return queuectl.Metrics{}, err
	}

	return queuectl.Metrics{
		Total:        total,
		Completed:    completed,
		Dead:         dead,
		MeanAttempts: attemptsRow.Mean.Float64,
		MeanDuration: durationRow.Mean.Float64,
	}, nil
}

// ReapZombieProcessing implements queuectl.Reaper.
func (r *Repository) ReapZombieProcessing(ctx context.Context, now time.Time, staleAfter time.Duration) (int64, error) {
	cutoff := now.Add(-staleAfter)
	res, err := r.db.write.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Pending.String()).
		Set("started_at = NULL").
		Set("updated_at = ?", now).
		Where("state = ?", job.Processing.String()).
		Where("started_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}

// Prune implements queuectl.Pruner.
func (r *Repository) Prune(ctx context.Context, state job.State, before *time.Time) (int64, error) {
	if state != job.Unknown && state != job.Completed && state != job.Dead {
		return 0, queuectl.ErrBadState
	}
	q := r.db.write.NewDelete().Model((*jobModel)(nil))
	if state != job.Unknown {
		q = q.Where("state = ?", state.String())
	} else {
		q = q.Where("state IN (?, ?)", job.Completed.String(), job.Dead.String())
	}
	if before != nil {
		q = q.Where("updated_at <= ?", before)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}
