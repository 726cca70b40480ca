package catalog

import (
	"errors"
	"slices"
	"testing"

	"github.com/hitoshi/complementai/internal/model"
)

func names(templates []model.Template) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.Name
	}
	return out
}

func TestLoad_EmbeddedCatalogIsValid(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}

	// すべての手法・段階の組に少なくとも1件の推奨がある
	for _, m := range model.Methodologies {
		for _, s := range model.Stages {
			got, err := c.Recommend(string(m), string(s))
			if err != nil {
				t.Fatalf("Recommend(%s, %s) returned error: %v", m, s, err)
			}
			if len(got) == 0 {
				t.Errorf("Recommend(%s, %s) returned no templates", m, s)
			}
		}
	}
}

func TestRecommend_FiltersAndKeepsOrder(t *testing.T) {
	c, err := Parse([]byte(`
templates:
  - name: A
    why: a
    methodologies: [agil]
    stages: [idea]
  - name: B
    why: b
  - name: C
    why: c
    methodologies: [pmbok]
  - name: D
    why: d
    stages: [cierre]
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	tests := []struct {
		methodology, stage string
		want               []string
	}{
		{"agil", "idea", []string{"A", "B"}},
		{"pmbok", "idea", []string{"B", "C"}},
		{"pmbok", "cierre", []string{"B", "C", "D"}},
		{"", "", []string{"A", "B", "C", "D"}},
		{"", "cierre", []string{"B", "C", "D"}},
	}
	for _, tt := range tests {
		got, err := c.Recommend(tt.methodology, tt.stage)
		if err != nil {
			t.Fatalf("Recommend(%q, %q) returned error: %v", tt.methodology, tt.stage, err)
		}
		if !slices.Equal(names(got), tt.want) {
			t.Errorf("Recommend(%q, %q) = %v, want %v", tt.methodology, tt.stage, names(got), tt.want)
		}
	}
}

func TestRecommend_InvalidEnum(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, args := range [][2]string{{"scrum", ""}, {"", "design"}} {
		_, err := c.Recommend(args[0], args[1])
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
			t.Errorf("Recommend(%q, %q) err = %v, want VALIDATION_FAILED", args[0], args[1], err)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"YAML不正": "templates: [",
		"名前なし":   "templates:\n  - why: x\n",
		"重複":     "templates:\n  - name: A\n  - name: A\n",
		"未知の手法":  "templates:\n  - name: A\n    methodologies: [kanban]\n",
		"未知の段階":  "templates:\n  - name: A\n    stages: [design]\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
