package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/complementai/internal/model"
)

const projectColumns = `p.id, p.user_id, p.name, p.methodology, p.stage, p.domain, p.templates, p.created_at, p.updated_at`

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

func scanProject(row rowScanner) (*model.Project, error) {
	p := &model.Project{}
	var methodology, stage string
	var templates []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &methodology, &stage, &p.Domain, &templates, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Methodology = model.Methodology(methodology)
	p.Stage = model.Stage(stage)
	if err := json.Unmarshal(templates, &p.Templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates of project %d: %w", p.ID, err)
	}
	if p.Templates == nil {
		p.Templates = []model.Template{}
	}
	return p, nil
}

func encodeTemplates(templates []model.Template) ([]byte, error) {
	if templates == nil {
		templates = []model.Template{}
	}
	b, err := json.Marshal(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode templates: %w", err)
	}
	return b, nil
}

func (r *PostgresProjectRepo) queryProjects(ctx context.Context, query string, args ...any) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// ListByUser はユーザーが所有するプロジェクトを新しい順に返す。
func (r *PostgresProjectRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Project, error) {
	return r.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects p
		 WHERE p.user_id = $1
		 ORDER BY p.created_at DESC, p.id DESC`,
		userID)
}

// ListByMember は承認済みメンバーとして参加しているプロジェクトを返す。
func (r *PostgresProjectRepo) ListByMember(ctx context.Context, userID int64) ([]*model.Project, error) {
	return r.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects p
		 JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = $1 AND m.status = 'accepted'
		 ORDER BY p.created_at DESC, p.id DESC`,
		userID)
}

// FindByIDAndUser は所有者が一致するプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByIDAndUser(ctx context.Context, id, userID int64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = $1 AND p.user_id = $2`,
		id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// CreateWithOwnerMembership はプロジェクトと作成者のPO行を同一トランザクションで作成する。
func (r *PostgresProjectRepo) CreateWithOwnerMembership(ctx context.Context, project *model.Project) error {
	templates, err := encodeTemplates(project.Templates)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO projects (user_id, name, methodology, stage, domain, templates)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		project.UserID, project.Name, string(project.Methodology), string(project.Stage), project.Domain, templates,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return translateWriteError("insert project", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, status)
		 VALUES ($1, $2, $3, $4)`,
		project.ID, project.UserID, string(model.RoleProductOwner), string(model.MemberStatusAccepted),
	)
	if err != nil {
		return translateWriteError("insert owner membership", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if project.Templates == nil {
		project.Templates = []model.Template{}
	}
	return nil
}

// Update はid・user_idが一致するプロジェクトを更新する。
func (r *PostgresProjectRepo) Update(ctx context.Context, project *model.Project) error {
	templates, err := encodeTemplates(project.Templates)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx,
		`UPDATE projects
		 SET name = $3, methodology = $4, stage = $5, domain = $6, templates = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		project.ID, project.UserID, project.Name, string(project.Methodology), string(project.Stage), project.Domain, templates,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update project: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if project.Templates == nil {
		project.Templates = []model.Template{}
	}
	return nil
}

// Delete はid・user_idが一致するプロジェクトを削除する。関連行はCASCADE削除される。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return expectAffected("delete project", result)
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
