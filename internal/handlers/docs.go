package handlers

import (
	"context"
	_ "embed"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

//go:embed openapi.yaml
var apiDocument []byte

type DocsHandler struct {
	doc *openapi3.T
}

// NewDocsHandler fails when the embedded document does not validate.
func NewDocsHandler(ctx context.Context) (*DocsHandler, error) {
	doc, err := services.LoadAPIDocument(ctx, apiDocument)
	if err != nil {
		return nil, err
	}
	return &DocsHandler{doc: doc}, nil
}

func (h *DocsHandler) OpenAPI(c *drift.Context) {
	_ = c.JSON(200, h.doc)
}
