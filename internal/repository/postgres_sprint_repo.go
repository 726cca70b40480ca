package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

// dateLayout はDATEカラムとの受け渡しに使う書式。
// time.Timeのまま渡すとセッションのタイムゾーンで日付がずれるため文字列で渡す。
const dateLayout = "2006-01-02"

const sprintColumns = `id, project_id, name, goal, start_date, end_date, status, created_at, updated_at`

// PostgresSprintRepo はPostgreSQLを使用したスプリントリポジトリ。
type PostgresSprintRepo struct {
	db *sql.DB
}

// NewPostgresSprintRepo はPostgresSprintRepoを生成する。
func NewPostgresSprintRepo(db *sql.DB) *PostgresSprintRepo {
	return &PostgresSprintRepo{db: db}
}

func scanSprint(row rowScanner) (*model.Sprint, error) {
	s := &model.Sprint{}
	var status string
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Goal, &s.StartDate, &s.EndDate, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.StartDate = truncateDate(s.StartDate)
	s.EndDate = truncateDate(s.EndDate)
	s.Status = model.SprintStatus(status)
	return s, nil
}

// truncateDate はDATEカラムから読んだ値をUTCの0時に揃える。
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ListByProject は開始日順にスプリントを返す。
func (r *PostgresSprintRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.Sprint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints
		 WHERE project_id = $1
		 ORDER BY start_date, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	sprints := []*model.Sprint{}
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}
		sprints = append(sprints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sprints: %w", err)
	}
	return sprints, nil
}

// FindByID はスプリントを取得する。見つからない場合はnilを返す。
func (r *PostgresSprintRepo) FindByID(ctx context.Context, id int64) (*model.Sprint, error) {
	s, err := scanSprint(r.db.QueryRowContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sprint: %w", err)
	}
	return s, nil
}

// Create はスプリントを作成する。
func (r *PostgresSprintRepo) Create(ctx context.Context, sprint *model.Sprint) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sprints (project_id, name, goal, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		sprint.ProjectID, sprint.Name, sprint.Goal,
		sprint.StartDate.Format(dateLayout), sprint.EndDate.Format(dateLayout), string(sprint.Status),
	).Scan(&sprint.ID, &sprint.CreatedAt, &sprint.UpdatedAt)
	if err != nil {
		return translateWriteError("insert sprint", err)
	}
	return nil
}

// Update はid・project_idが一致するスプリントを更新する。
func (r *PostgresSprintRepo) Update(ctx context.Context, sprint *model.Sprint) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE sprints
		 SET name = $3, goal = $4, start_date = $5, end_date = $6, status = $7, updated_at = NOW()
		 WHERE id = $1 AND project_id = $2
		 RETURNING created_at, updated_at`,
		sprint.ID, sprint.ProjectID, sprint.Name, sprint.Goal,
		sprint.StartDate.Format(dateLayout), sprint.EndDate.Format(dateLayout), string(sprint.Status),
	).Scan(&sprint.CreatedAt, &sprint.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update sprint: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update sprint: %w", err)
	}
	return nil
}

// Delete はid・project_idが一致するスプリントを削除する。
func (r *PostgresSprintRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sprints WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}
	return expectAffected("delete sprint", result)
}

// compile-time interface check
var _ SprintRepository = (*PostgresSprintRepo)(nil)
