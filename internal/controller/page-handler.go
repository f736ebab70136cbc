package controller

import (
	"bytes"
	_ "embed"
	"net/http"
)

//go:embed static/bridge.js
var bridgeJS []byte

func (c controller) renderPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.embedService.RenderPage(r.Context(), c.getPageIdFromCtx(r.Context()), &buf); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write page", "error", err)
	}
}

func (c controller) bridgeScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(bridgeJS); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write bridge script", "error", err)
	}
}
