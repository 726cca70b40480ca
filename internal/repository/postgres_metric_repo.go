package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

// PostgresMetricRepo はPostgreSQLを使用したスプリントメトリクスリポジトリ。
type PostgresMetricRepo struct {
	db *sql.DB
}

// NewPostgresMetricRepo はPostgresMetricRepoを生成する。
func NewPostgresMetricRepo(db *sql.DB) *PostgresMetricRepo {
	return &PostgresMetricRepo{db: db}
}

// ListBySprint は日付昇順でメトリクスを返す。
func (r *PostgresMetricRepo) ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintMetric, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sprint_id, date, remaining_points, completed_points, created_at
		 FROM sprint_metrics
		 WHERE sprint_id = $1
		 ORDER BY date, id`,
		sprintID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprint metrics: %w", err)
	}
	defer rows.Close()

	metrics := []*model.SprintMetric{}
	for rows.Next() {
		m := &model.SprintMetric{}
		if err := rows.Scan(&m.ID, &m.SprintID, &m.Date, &m.RemainingPoints, &m.CompletedPoints, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sprint metric: %w", err)
		}
		m.Date = truncateDate(m.Date)
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sprint metrics: %w", err)
	}
	return metrics, nil
}

// Create はメトリクスを追記する。
func (r *PostgresMetricRepo) Create(ctx context.Context, metric *model.SprintMetric) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sprint_metrics (sprint_id, date, remaining_points, completed_points)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		metric.SprintID, metric.Date.Format(dateLayout), metric.RemainingPoints, metric.CompletedPoints,
	).Scan(&metric.ID, &metric.CreatedAt)
	if err != nil {
		return translateWriteError("insert sprint metric", err)
	}
	return nil
}

// Delete はid・sprint_idが一致するメトリクスを削除する。
func (r *PostgresMetricRepo) Delete(ctx context.Context, sprintID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sprint_metrics WHERE id = $1 AND sprint_id = $2`, id, sprintID)
	if err != nil {
		return fmt.Errorf("failed to delete sprint metric: %w", err)
	}
	return expectAffected("delete sprint metric", result)
}

// compile-time interface check
var _ MetricRepository = (*PostgresMetricRepo)(nil)
