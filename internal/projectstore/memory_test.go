package projectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/complementai/internal/model"
)

func newTestMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return s
}

func TestMemoryStore_SaveCreatesAndUpdates(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	p := &Project{Name: "  Portal  ", Methodology: "agil", Stage: "idea"}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.ID != 1 {
		t.Errorf("ID = %d, want 1", p.ID)
	}
	if p.Name != "Portal" {
		t.Errorf("Name = %q, want trimmed %q", p.Name, "Portal")
	}
	if p.Templates == nil {
		t.Error("Templates should be an empty slice, got nil")
	}
	created := p.CreatedAt

	p.Stage = "ejecucion"
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save(update) error = %v", err)
	}
	if p.ID != 1 {
		t.Errorf("ID changed on update: %d", p.ID)
	}
	if !p.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created, p.CreatedAt)
	}
	if !p.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt = %v, want after %v", p.UpdatedAt, created)
	}

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Stage != "ejecucion" {
		t.Errorf("Stage = %q, want ejecucion", got.Stage)
	}
}

func TestMemoryStore_SaveValidation(t *testing.T) {
	tests := []struct {
		name string
		p    Project
	}{
		{"名前なし", Project{Name: " ", Methodology: "agil", Stage: "idea"}},
		{"不正な手法", Project{Name: "x", Methodology: "waterfall", Stage: "idea"}},
		{"不正な段階", Project{Name: "x", Methodology: "pmbok", Stage: "done"}},
		{"テンプレート名なし", Project{Name: "x", Methodology: "pmbok", Stage: "idea",
			Templates: []model.Template{{Name: "", Why: "because"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestMemoryStore()
			p := tt.p
			err := s.Save(context.Background(), &p)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Save() error = %v, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
			}
		})
	}
}

func TestMemoryStore_UpdateUnknownID(t *testing.T) {
	s := newTestMemoryStore()
	p := &Project{ID: 42, Name: "x", Methodology: "agil", Stage: "idea"}
	if err := s.Save(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListOrderAndIsolation(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		p := &Project{Name: name, Methodology: "iso21502", Stage: "planificacion",
			Templates: []model.Template{{Name: "Charter", Why: "scope"}}}
		if err := s.Save(ctx, p); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []string{"A", "B", "C"} {
		if list[i].Name != want {
			t.Errorf("list[%d].Name = %q, want %q", i, list[i].Name, want)
		}
	}

	// 返却値を書き換えても保存内容に影響しない
	list[0].Templates[0].Name = "mutated"
	again, _ := s.Get(ctx, list[0].ID)
	if again.Templates[0].Name != "Charter" {
		t.Errorf("stored template mutated through List result: %q", again.Templates[0].Name)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	p := &Project{Name: "x", Methodology: "agil", Stage: "cierre"}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
