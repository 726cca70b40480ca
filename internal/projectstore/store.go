// Package projectstore はクライアント側からプロジェクトを保存・取得するためのストアを提供する。
// 本番ではAPIサーバーの/api/projectsを使い、テストやデモではメモリ上に保持する。
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

// ErrNotFound はプロジェクトが存在しないか、呼び出し元の所有でないことを表す。
var ErrNotFound = errors.New("project not found")

// Project はAPIの入出力と同じ形のプロジェクト。
type Project struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Methodology string           `json:"methodology"`
	Stage       string           `json:"stage"`
	Domain      string           `json:"domain"`
	Templates   []model.Template `json:"templates"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Store はプロジェクトの保存先を抽象化する。
// SaveはIDが0なら作成、それ以外なら更新として扱い、採番・タイムスタンプをpに反映する。
type Store interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	Save(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id int64) error
}
