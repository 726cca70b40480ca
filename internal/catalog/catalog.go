// Package catalog は手法・段階ごとに推奨する成果物テンプレートのカタログを提供する。
// カタログはバイナリに埋め込んだYAMLから起動時に一度だけ読み込む。
package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/complementai/internal/model"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Entry はカタログの1項目。
type Entry struct {
	Name          string              `yaml:"name"`
	Why           string              `yaml:"why"`
	Methodologies []model.Methodology `yaml:"methodologies"`
	Stages        []model.Stage       `yaml:"stages"`
}

// Catalog は順序付きのテンプレート一覧。
type Catalog struct {
	entries []Entry
}

type catalogFile struct {
	Templates []Entry `yaml:"templates"`
}

// Load は埋め込みカタログを読み込む。
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Parse はYAMLからカタログを構築し、未知の手法・段階や重複名を拒否する。
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Templates))
	for i, e := range f.Templates {
		if e.Name == "" {
			return nil, fmt.Errorf("template catalog entry %d: name is required", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("template catalog entry %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
		for _, m := range e.Methodologies {
			if _, ok := model.ParseMethodology(string(m)); !ok {
				return nil, fmt.Errorf("template catalog entry %q: unknown methodology %q", e.Name, m)
			}
		}
		for _, s := range e.Stages {
			if _, ok := model.ParseStage(string(s)); !ok {
				return nil, fmt.Errorf("template catalog entry %q: unknown stage %q", e.Name, s)
			}
		}
	}
	return &Catalog{entries: f.Templates}, nil
}

// Recommend は手法と段階に該当するテンプレートをカタログ順に返す。
// 引数が空文字の場合はその条件で絞り込まない。未知の値はVALIDATION_FAILED。
func (c *Catalog) Recommend(methodology, stage string) ([]model.Template, error) {
	var m model.Methodology
	if methodology != "" {
		parsed, ok := model.ParseMethodology(methodology)
		if !ok {
			return nil, model.NewValidationError("Methodology %q is not one of pmbok, iso21502, agil.", methodology)
		}
		m = parsed
	}
	var s model.Stage
	if stage != "" {
		parsed, ok := model.ParseStage(stage)
		if !ok {
			return nil, model.NewValidationError("Stage %q is not one of idea, planificacion, ejecucion, cierre.", stage)
		}
		s = parsed
	}

	result := []model.Template{}
	for _, e := range c.entries {
		if m != "" && len(e.Methodologies) > 0 && !slices.Contains(e.Methodologies, m) {
			continue
		}
		if s != "" && len(e.Stages) > 0 && !slices.Contains(e.Stages, s) {
			continue
		}
		result = append(result, model.Template{Name: e.Name, Why: e.Why})
	}
	return result, nil
}

// Len はカタログの項目数を返す。
func (c *Catalog) Len() int {
	return len(c.entries)
}
