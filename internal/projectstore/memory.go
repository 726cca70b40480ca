package projectstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

// MemoryStore はプロセス内のmapに保持するStore実装。
type MemoryStore struct {
	mu       sync.Mutex
	projects map[int64]Project
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[int64]Project),
		nextID:   1,
		now:      time.Now,
	}
}

// List はID順にプロジェクトを返す。
func (s *MemoryStore) List(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, clone(p))
	}
	slices.SortFunc(out, func(a, b Project) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Get はプロジェクトを返す。存在しない場合はErrNotFound。
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := clone(p)
	return &c, nil
}

// Save はサーバーと同じ列挙値・必須項目の検証を行ってから保存する。
func (s *MemoryStore) Save(ctx context.Context, p *Project) error {
	if err := validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
		p.CreatedAt = now
	} else {
		existing, ok := s.projects[p.ID]
		if !ok {
			return ErrNotFound
		}
		p.CreatedAt = existing.CreatedAt
	}
	p.UpdatedAt = now
	if p.Templates == nil {
		p.Templates = []model.Template{}
	}

	s.projects[p.ID] = clone(*p)
	return nil
}

// Delete はプロジェクトを削除する。存在しない場合はErrNotFound。
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func validate(p *Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.NewValidationError("Project name is required.")
	}
	if _, ok := model.ParseMethodology(p.Methodology); !ok {
		return model.NewValidationError("Methodology %q is not supported.", p.Methodology)
	}
	if _, ok := model.ParseStage(p.Stage); !ok {
		return model.NewValidationError("Stage %q is not supported.", p.Stage)
	}
	for i, t := range p.Templates {
		if strings.TrimSpace(t.Name) == "" {
			return model.NewValidationError("Template %d: name is required.", i)
		}
	}
	return nil
}

// clone はテンプレートのスライスを共有しないコピーを返す。
func clone(p Project) Project {
	p.Templates = slices.Clone(p.Templates)
	if p.Templates == nil {
		p.Templates = []model.Template{}
	}
	return p
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
