package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したプロジェクトメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// HasAcceptedRole は承認済みで指定ロールを持つ行の件数が1以上かを返す。
func (r *PostgresMemberRepo) HasAcceptedRole(ctx context.Context, projectID, userID int64, role model.Role) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members
		 WHERE project_id = $1 AND user_id = $2 AND role = $3 AND status = 'accepted'`,
		projectID, userID, string(role),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check member role: %w", err)
	}
	return count > 0, nil
}

// IsAcceptedMember はロールを問わず承認済みメンバーであるかを返す。
func (r *PostgresMemberRepo) IsAcceptedMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members
		 WHERE project_id = $1 AND user_id = $2 AND status = 'accepted'`,
		projectID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// ListByProject はプロジェクトのメンバーをユーザー情報付きで返す。
func (r *PostgresMemberRepo) ListByProject(ctx context.Context, projectID int64) ([]*model.ProjectMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.project_id, m.user_id, m.role, m.status, u.email, u.first_name, u.last_name, m.created_at
		 FROM project_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1
		 ORDER BY m.created_at, m.id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []*model.ProjectMember{}
	for rows.Next() {
		m := &model.ProjectMember{}
		var role, status string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &status, &m.Email, &m.FirstName, &m.LastName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = model.Role(role)
		m.Status = model.MemberStatus(status)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// Create はメンバーを追加する。重複判定は事前SELECTではなくユニーク制約違反で行う。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.ProjectMember) error {
	if member.Status == "" {
		member.Status = model.MemberStatusPending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		member.ProjectID, member.UserID, string(member.Role), string(member.Status),
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return translateWriteError("insert member", err)
	}
	return nil
}

// Delete はプロジェクト内の指定メンバーを削除する。
func (r *PostgresMemberRepo) Delete(ctx context.Context, projectID, memberID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE id = $1 AND project_id = $2`, memberID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return expectAffected("delete member", result)
}

// Accept は保留中の招待を承認済みにして返す。
func (r *PostgresMemberRepo) Accept(ctx context.Context, projectID, userID int64) (*model.ProjectMember, error) {
	m := &model.ProjectMember{}
	var role, status string
	err := r.db.QueryRowContext(ctx,
		`UPDATE project_members SET status = 'accepted'
		 WHERE project_id = $1 AND user_id = $2 AND status = 'pending'
		 RETURNING id, project_id, user_id, role, status, created_at`,
		projectID, userID,
	).Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &status, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("accept invitation: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	m.Role = model.Role(role)
	m.Status = model.MemberStatus(status)
	return m, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
