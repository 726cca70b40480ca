package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

// PostgresParkingLotRepo はPostgreSQLを使用したパーキングロットリポジトリ。
type PostgresParkingLotRepo struct {
	db *sql.DB
}

// NewPostgresParkingLotRepo はPostgresParkingLotRepoを生成する。
func NewPostgresParkingLotRepo(db *sql.DB) *PostgresParkingLotRepo {
	return &PostgresParkingLotRepo{db: db}
}

// ListByProject は新しい順にパーキングロット項目を返す。
func (r *PostgresParkingLotRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ParkingLotItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, content, created_by, created_at
		 FROM parking_lot_items
		 WHERE project_id = $1
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list parking lot items: %w", err)
	}
	defer rows.Close()

	items := []*model.ParkingLotItem{}
	for rows.Next() {
		item := &model.ParkingLotItem{}
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Content, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parking lot item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parking lot items: %w", err)
	}
	return items, nil
}

// Create はパーキングロット項目を作成する。
func (r *PostgresParkingLotRepo) Create(ctx context.Context, item *model.ParkingLotItem) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO parking_lot_items (project_id, content, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		item.ProjectID, item.Content, item.CreatedBy,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return translateWriteError("insert parking lot item", err)
	}
	return nil
}

// Delete はid・project_idが一致する項目を削除する。
func (r *PostgresParkingLotRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM parking_lot_items WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete parking lot item: %w", err)
	}
	return expectAffected("delete parking lot item", result)
}

// compile-time interface check
var _ ParkingLotRepository = (*PostgresParkingLotRepo)(nil)
