package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharetube/embed/pkg/ctxlogger"
)

// pathParam is a chi url parameter that is moved into the request context
// and the log attributes.
type pathParam struct {
	name    string
	logAttr string
}

var (
	pageIdParam    = &pathParam{name: "page-id", logAttr: "page_id"}
	elementIdParam = &pathParam{name: "element-id", logAttr: "element_id"}
)

func (p *pathParam) mw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := chi.URLParam(r, p.name)
		ctx := context.WithValue(r.Context(), p, value)
		ctx = ctxlogger.AppendCtx(ctx, slog.String(p.logAttr, value))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *pathParam) fromCtx(ctx context.Context) string {
	value, _ := ctx.Value(p).(string)
	return value
}

func (c controller) getPageIdFromCtx(ctx context.Context) string {
	return pageIdParam.fromCtx(ctx)
}

func (c controller) getElementIdFromCtx(ctx context.Context) string {
	return elementIdParam.fromCtx(ctx)
}
