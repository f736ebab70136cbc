package controller

import (
	"net/http"

	"github.com/sharetube/embed/internal/service/embed"
)

// connectPage upgrades the connection of the browser showing a page and
// serves its bridge session until either side closes it.
func (c controller) connectPage(w http.ResponseWriter, r *http.Request) {
	pageId := c.getPageIdFromCtx(r.Context())

	page, err := c.embedService.GetPage(r.Context(), pageId)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	if page.Connected {
		c.writeError(w, r, embed.ErrPageConnected)
		return
	}
	if page.Ready {
		c.writeError(w, r, embed.ErrPageExpired)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	if err := c.embedService.ConnectPage(r.Context(), &embed.ConnectPageParams{
		PageId: pageId,
		Conn:   conn,
	}); err != nil {
		c.logger.InfoContext(r.Context(), "failed to serve conn", "error", err)
		return
	}
}
