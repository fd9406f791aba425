package testutils

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams injeta parâmetros de rota no contexto chi da requisição
// para os testes de handler.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}
