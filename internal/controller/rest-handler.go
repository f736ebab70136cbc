package controller

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sharetube/embed/internal/service/embed"
	"github.com/sharetube/embed/pkg/rest"
	"github.com/sharetube/embed/pkg/ytapi"
)

type playerRequest struct {
	ElementId       string           `json:"element_id" validate:"omitempty,max=64,excludesall= \t\"'<>"`
	VideoId         string           `json:"video_id" validate:"omitempty,len=11"`
	Width           int              `json:"width" validate:"omitempty,min=200,max=7680"`
	Height          int              `json:"height" validate:"omitempty,min=200,max=4320"`
	PlayerVars      ytapi.PlayerVars `json:"player_vars"`
	Cookie          *bool            `json:"cookie"`
	OnVideoIdChange string           `json:"on_video_id_change" validate:"omitempty,oneof=play cue"`
}

func (p playerRequest) params() embed.PlayerParams {
	playerVars := p.PlayerVars
	if playerVars == nil {
		playerVars = ytapi.PlayerVars{"autoplay": 0, "mute": 0}
	}

	return embed.PlayerParams{
		ElementId:       p.ElementId,
		VideoId:         p.VideoId,
		Width:           p.Width,
		Height:          p.Height,
		PlayerVars:      playerVars,
		Cookie:          p.Cookie,
		OnVideoIdChange: p.OnVideoIdChange,
	}
}

type createPageRequest struct {
	Title   string          `json:"title" validate:"max=256"`
	Players []playerRequest `json:"players" validate:"max=32,dive"`
}

func (c controller) createPage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if !c.readValid(w, r, &req) {
		return
	}

	players := make([]embed.PlayerParams, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, p.params())
	}

	createPageResp, err := c.embedService.CreatePage(r.Context(), &embed.CreatePageParams{
		Title:   req.Title,
		Players: players,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusCreated, rest.Envelope{"data": createPageResp.Page})
}

func (c controller) listPages(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": c.embedService.ListPages(r.Context())})
}

func (c controller) getPage(w http.ResponseWriter, r *http.Request) {
	page, err := c.embedService.GetPage(r.Context(), c.getPageIdFromCtx(r.Context()))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": page})
}

func (c controller) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := c.embedService.DeletePage(r.Context(), c.getPageIdFromCtx(r.Context())); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loadScriptResponse struct {
	Inserted bool `json:"inserted"`
	Ready    bool `json:"ready"`
}

func (c controller) loadScript(w http.ResponseWriter, r *http.Request) {
	loadResp, err := c.embedService.LoadScript(r.Context(), c.getPageIdFromCtx(r.Context()))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": loadScriptResponse{
		Inserted: loadResp.Inserted,
		Ready:    loadResp.Ready,
	}})
}

func (c controller) addPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !c.readValid(w, r, &req) {
		return
	}

	player, err := c.embedService.AddPlayer(r.Context(), &embed.AddPlayerParams{
		PageId: c.getPageIdFromCtx(r.Context()),
		Player: req.params(),
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusCreated, rest.Envelope{"data": player})
}

func (c controller) getPlayerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.embedService.GetPlayerStatus(r.Context(),
		c.getPageIdFromCtx(r.Context()),
		c.getElementIdFromCtx(r.Context()),
	)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": status})
}

func (c controller) removePlayer(w http.ResponseWriter, r *http.Request) {
	if err := c.embedService.RemovePlayer(r.Context(),
		c.getPageIdFromCtx(r.Context()),
		c.getElementIdFromCtx(r.Context()),
	); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setPlayerVideoRequest struct {
	VideoId string `json:"video_id" validate:"required,len=11"`
}

func (c controller) setPlayerVideo(w http.ResponseWriter, r *http.Request) {
	var req setPlayerVideoRequest
	if !c.readValid(w, r, &req) {
		return
	}

	player, err := c.embedService.SetPlayerVideo(r.Context(), &embed.SetPlayerVideoParams{
		PageId:    c.getPageIdFromCtx(r.Context()),
		ElementId: c.getElementIdFromCtx(r.Context()),
		VideoId:   req.VideoId,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": player})
}

func (c controller) togglePlayer(w http.ResponseWriter, r *http.Request) {
	toggle, ok := strings.CutPrefix(chi.URLParam(r, "toggle"), "toggle-")
	if !ok {
		c.writeJSON(w, r, http.StatusNotFound, rest.Envelope{"error": http.StatusText(http.StatusNotFound)})
		return
	}

	player, err := c.embedService.TogglePlayer(r.Context(), &embed.TogglePlayerParams{
		PageId:    c.getPageIdFromCtx(r.Context()),
		ElementId: c.getElementIdFromCtx(r.Context()),
		Toggle:    embed.Toggle(toggle),
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"data": player})
}
