package handler

import (
	"net/http"

	"github.com/hitoshi/complementai/internal/model"
)

// TemplateRecommender はテンプレートカタログから推奨リストを返すインターフェース。
type TemplateRecommender interface {
	Recommend(methodology, stage string) ([]model.Template, error)
}

// CatalogHandler はテンプレートカタログのHTTPハンドラー。
type CatalogHandler struct {
	catalog TemplateRecommender
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(catalog TemplateRecommender) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Templates は方法論とステージに応じた推奨テンプレートを返す。
// 未指定のパラメータは絞り込みに使わない。
// GET /api/catalog/templates?methodology=&stage=
func (h *CatalogHandler) Templates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.catalog.Recommend(trimmed(r, "methodology"), trimmed(r, "stage"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if templates == nil {
		templates = []model.Template{}
	}

	writeJSON(w, http.StatusOK, templates)
}
