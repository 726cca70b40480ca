package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

// PostgresSprintItemRepo はPostgreSQLを使用したスプリントバックログリポジトリ。
type PostgresSprintItemRepo struct {
	db *sql.DB
}

// NewPostgresSprintItemRepo はPostgresSprintItemRepoを生成する。
func NewPostgresSprintItemRepo(db *sql.DB) *PostgresSprintItemRepo {
	return &PostgresSprintItemRepo{db: db}
}

func scanSprintItem(row rowScanner) (*model.SprintBacklogItem, error) {
	item := &model.SprintBacklogItem{}
	var status string
	var points sql.NullInt64
	if err := row.Scan(&item.ID, &item.SprintID, &item.BacklogItemID, &status, &item.CreatedAt,
		&item.Title, &item.Priority, &points); err != nil {
		return nil, err
	}
	item.Status = model.ItemStatus(status)
	item.StoryPoints = intPtrFromNull(points)
	return item, nil
}

// ListBySprint はスプリントに含まれる項目をバックログ情報付きで返す。
func (r *PostgresSprintItemRepo) ListBySprint(ctx context.Context, sprintID int64) ([]*model.SprintBacklogItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT si.id, si.sprint_id, si.backlog_item_id, si.status, si.created_at, b.title, b.priority, b.story_points
		 FROM sprint_backlog_items si
		 JOIN backlog_items b ON b.id = si.backlog_item_id
		 WHERE si.sprint_id = $1
		 ORDER BY b.priority, si.id`,
		sprintID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprint items: %w", err)
	}
	defer rows.Close()

	items := []*model.SprintBacklogItem{}
	for rows.Next() {
		item, err := scanSprintItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sprint item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sprint items: %w", err)
	}
	return items, nil
}

// Create はバックログ項目をスプリントに追加する。
// INSERT ... SELECTでスプリントとバックログ項目が同一プロジェクトに属することを保証する。
func (r *PostgresSprintItemRepo) Create(ctx context.Context, item *model.SprintBacklogItem) error {
	if item.Status == "" {
		item.Status = model.ItemStatusTodo
	}
	created, err := scanSprintItem(r.db.QueryRowContext(ctx,
		`WITH ins AS (
			INSERT INTO sprint_backlog_items (sprint_id, backlog_item_id, status)
			SELECT s.id, b.id, $3
			FROM sprints s
			JOIN backlog_items b ON b.project_id = s.project_id
			WHERE s.id = $1 AND b.id = $2
			RETURNING id, sprint_id, backlog_item_id, status, created_at
		)
		SELECT ins.id, ins.sprint_id, ins.backlog_item_id, ins.status, ins.created_at, b.title, b.priority, b.story_points
		FROM ins JOIN backlog_items b ON b.id = ins.backlog_item_id`,
		item.SprintID, item.BacklogItemID, string(item.Status),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("insert sprint item: %w", ErrNotFound)
	}
	if err != nil {
		return translateWriteError("insert sprint item", err)
	}
	*item = *created
	return nil
}

// UpdateStatus はスプリント内の項目の状態を更新する。
func (r *PostgresSprintItemRepo) UpdateStatus(ctx context.Context, sprintID, id int64, status model.ItemStatus) (*model.SprintBacklogItem, error) {
	item, err := scanSprintItem(r.db.QueryRowContext(ctx,
		`WITH upd AS (
			UPDATE sprint_backlog_items SET status = $3
			WHERE id = $1 AND sprint_id = $2
			RETURNING id, sprint_id, backlog_item_id, status, created_at
		)
		SELECT upd.id, upd.sprint_id, upd.backlog_item_id, upd.status, upd.created_at, b.title, b.priority, b.story_points
		FROM upd JOIN backlog_items b ON b.id = upd.backlog_item_id`,
		id, sprintID, string(status),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update sprint item: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update sprint item: %w", err)
	}
	return item, nil
}

// Delete はスプリントから項目を外す。バックログ項目自体は残る。
func (r *PostgresSprintItemRepo) Delete(ctx context.Context, sprintID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sprint_backlog_items WHERE id = $1 AND sprint_id = $2`, id, sprintID)
	if err != nil {
		return fmt.Errorf("failed to delete sprint item: %w", err)
	}
	return expectAffected("delete sprint item", result)
}

// compile-time interface check
var _ SprintItemRepository = (*PostgresSprintItemRepo)(nil)
