package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

const backlogColumns = `id, project_id, title, description, type, status, priority, story_points, created_at, updated_at`

// PostgresBacklogRepo はPostgreSQLを使用したプロダクトバックログリポジトリ。
type PostgresBacklogRepo struct {
	db *sql.DB
}

// NewPostgresBacklogRepo はPostgresBacklogRepoを生成する。
func NewPostgresBacklogRepo(db *sql.DB) *PostgresBacklogRepo {
	return &PostgresBacklogRepo{db: db}
}

func scanBacklogItem(row rowScanner) (*model.BacklogItem, error) {
	item := &model.BacklogItem{}
	var itemType, status string
	var points sql.NullInt64
	if err := row.Scan(&item.ID, &item.ProjectID, &item.Title, &item.Description, &itemType, &status,
		&item.Priority, &points, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Type = model.ItemType(itemType)
	item.Status = model.ItemStatus(status)
	item.StoryPoints = intPtrFromNull(points)
	return item, nil
}

func intPtrFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullFromIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// ListByProject は優先度の高い順（1が最優先）にバックログを返す。
func (r *PostgresBacklogRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.BacklogItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+backlogColumns+` FROM backlog_items
		 WHERE project_id = $1
		 ORDER BY priority, created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog items: %w", err)
	}
	defer rows.Close()

	items := []*model.BacklogItem{}
	for rows.Next() {
		item, err := scanBacklogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backlog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backlog items: %w", err)
	}
	return items, nil
}

// Create はバックログ項目を作成する。
func (r *PostgresBacklogRepo) Create(ctx context.Context, item *model.BacklogItem) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO backlog_items (project_id, title, description, type, status, priority, story_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		item.ProjectID, item.Title, item.Description, string(item.Type), string(item.Status),
		item.Priority, nullFromIntPtr(item.StoryPoints),
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return translateWriteError("insert backlog item", err)
	}
	return nil
}

// Update はid・project_idが一致するバックログ項目を更新する。
func (r *PostgresBacklogRepo) Update(ctx context.Context, item *model.BacklogItem) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE backlog_items
		 SET title = $3, description = $4, type = $5, status = $6, priority = $7, story_points = $8, updated_at = NOW()
		 WHERE id = $1 AND project_id = $2
		 RETURNING created_at, updated_at`,
		item.ID, item.ProjectID, item.Title, item.Description, string(item.Type), string(item.Status),
		item.Priority, nullFromIntPtr(item.StoryPoints),
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update backlog item: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update backlog item: %w", err)
	}
	return nil
}

// Delete はid・project_idが一致するバックログ項目を削除する。
func (r *PostgresBacklogRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM backlog_items WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete backlog item: %w", err)
	}
	return expectAffected("delete backlog item", result)
}

// compile-time interface check
var _ BacklogRepository = (*PostgresBacklogRepo)(nil)
