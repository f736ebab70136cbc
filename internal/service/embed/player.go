package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sharetube/embed/internal/broker"
	"github.com/sharetube/embed/internal/player"
	"github.com/sharetube/embed/internal/repository/status"
	"github.com/sharetube/embed/pkg/reactive"
	"github.com/sharetube/embed/pkg/ytapi"
)

type playerEntry struct {
	handle  *player.Handle
	videoId *reactive.Value[string]
}

func (e *playerEntry) info() PlayerInfo {
	_, created := e.handle.Instance()

	return PlayerInfo{
		ElementId: e.handle.ElementID(),
		VideoId:   e.videoId.Get(),
		Created:   created,
		Shuffle:   e.handle.Shuffle(),
		Loop:      e.handle.Loop(),
	}
}

type PlayerParams struct {
	// ElementId is generated when empty.
	ElementId       string
	VideoId         string
	Width           int
	Height          int
	PlayerVars      ytapi.PlayerVars
	Cookie          *bool
	OnVideoIdChange string
}

func (s *service) addPlayer(ctx context.Context, p *Page, params *PlayerParams) (PlayerInfo, error) {
	p.addMu.Lock()
	defer p.addMu.Unlock()

	if params.ElementId != "" {
		if strings.HasPrefix(params.ElementId, broker.IDPrefix+"-") {
			return PlayerInfo{}, ErrReservedElementId
		}
		if _, err := p.entry(params.ElementId); err == nil {
			return PlayerInfo{}, ErrDuplicateElement
		}
	}

	el := p.document.AppendElement(params.ElementId)
	videoId := reactive.New(params.VideoId)

	h, err := player.Use(broker.NewContext(ctx, p.broker), videoId, player.ElementTarget(el), player.Options{
		Width:           params.Width,
		Height:          params.Height,
		PlayerVars:      params.PlayerVars,
		Cookie:          params.Cookie,
		OnVideoIDChange: player.OnVideoIDChange(params.OnVideoIdChange),
	})
	if err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to create handle: %w", err)
	}
	s.subscribe(p, h)

	if err := h.Attach(ctx); err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to attach handle: %w", err)
	}

	e := &playerEntry{handle: h, videoId: videoId}
	elementId := h.ElementID()

	p.mu.Lock()
	p.players[elementId] = e
	p.order = append(p.order, elementId)
	p.mu.Unlock()

	s.recordVideo(ctx, p.Id, elementId, params.VideoId)

	return e.info(), nil
}

type AddPlayerParams struct {
	PageId string
	Player PlayerParams
}

// AddPlayer places one more player on an existing page. On a ready page the
// player is created right away.
func (s *service) AddPlayer(ctx context.Context, params *AddPlayerParams) (PlayerInfo, error) {
	p, err := s.getPage(params.PageId)
	if err != nil {
		return PlayerInfo{}, err
	}

	info, err := s.addPlayer(ctx, p, &params.Player)
	if err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to add player: %w", err)
	}

	return info, nil
}

type SetPlayerVideoParams struct {
	PageId    string
	ElementId string
	VideoId   string
}

// SetPlayerVideo changes the video id bound to the player. A created player
// loads or cues the new video depending on its options.
func (s *service) SetPlayerVideo(ctx context.Context, params *SetPlayerVideoParams) (PlayerInfo, error) {
	p, err := s.getPage(params.PageId)
	if err != nil {
		return PlayerInfo{}, err
	}

	e, err := p.entry(params.ElementId)
	if err != nil {
		return PlayerInfo{}, err
	}

	if e.videoId.Get() != params.VideoId {
		e.videoId.Set(params.VideoId)
		s.recordVideo(ctx, p.Id, params.ElementId, params.VideoId)
	}

	return e.info(), nil
}

type Toggle string

const (
	TogglePlay    Toggle = "play"
	ToggleMute    Toggle = "mute"
	ToggleLoop    Toggle = "loop"
	ToggleShuffle Toggle = "shuffle"
)

type TogglePlayerParams struct {
	PageId    string
	ElementId string
	Toggle    Toggle
}

func (s *service) TogglePlayer(ctx context.Context, params *TogglePlayerParams) (PlayerInfo, error) {
	p, err := s.getPage(params.PageId)
	if err != nil {
		return PlayerInfo{}, err
	}

	e, err := p.entry(params.ElementId)
	if err != nil {
		return PlayerInfo{}, err
	}

	switch params.Toggle {
	case TogglePlay:
		err = e.handle.TogglePlay(ctx)
	case ToggleMute:
		err = e.handle.ToggleMute(ctx)
	case ToggleLoop:
		err = e.handle.ToggleLoop(ctx)
	case ToggleShuffle:
		err = e.handle.ToggleShuffle(ctx)
	default:
		return PlayerInfo{}, fmt.Errorf("%w: %q", ErrUnknownToggle, params.Toggle)
	}
	if err != nil {
		return PlayerInfo{}, fmt.Errorf("failed to toggle %s: %w", params.Toggle, err)
	}

	return e.info(), nil
}

// RemovePlayer destroys the player and forgets it.
func (s *service) RemovePlayer(ctx context.Context, pageId, elementId string) error {
	p, err := s.getPage(pageId)
	if err != nil {
		return err
	}

	p.mu.Lock()
	e, ok := p.players[elementId]
	if ok {
		delete(p.players, elementId)
		for i, id := range p.order {
			if id == elementId {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	p.mu.Unlock()

	if !ok {
		return ErrPlayerNotFound
	}

	if err := e.handle.Detach(ctx); err != nil {
		return fmt.Errorf("failed to detach player: %w", err)
	}

	if err := s.statusRepo.Remove(ctx, pageId, elementId); err != nil && !errors.Is(err, status.ErrStatusNotFound) {
		return fmt.Errorf("failed to remove status: %w", err)
	}

	return nil
}

// GetPlayerStatus merges the stored status snapshot with the live handle.
func (s *service) GetPlayerStatus(ctx context.Context, pageId, elementId string) (PlayerStatus, error) {
	p, err := s.getPage(pageId)
	if err != nil {
		return PlayerStatus{}, err
	}

	e, err := p.entry(elementId)
	if err != nil {
		return PlayerStatus{}, err
	}

	res := PlayerStatus{
		PlayerInfo: e.info(),
		State:      ytapi.StateUnstarted,
	}

	st, err := s.statusRepo.Get(ctx, pageId, elementId)
	switch {
	case err == nil:
		res.State = ytapi.PlayerState(st.State)
		res.Error = ytapi.PlayerError(st.Error)
		res.Title = st.Title
		res.Author = st.Author
		res.CurrentTime = st.CurrentTime
		res.UpdatedAt = st.UpdatedAt
	case errors.Is(err, status.ErrStatusNotFound):
	default:
		return PlayerStatus{}, fmt.Errorf("failed to get status: %w", err)
	}

	res.StateName = res.State.String()
	if res.Error != 0 {
		res.ErrorName = res.Error.String()
	}

	return res, nil
}
