package embed

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharetube/embed/internal/metrics"
	"github.com/sharetube/embed/internal/player"
	"github.com/sharetube/embed/internal/repository/status"
	"github.com/sharetube/embed/pkg/ctxlogger"
	"github.com/sharetube/embed/pkg/ytapi"
)

// subscribe feeds player events of h into the status repository.
func (s *service) subscribe(p *Page, h *player.Handle) {
	h.OnReady(func(e ytapi.Event) {
		p.logger.Info("player ready", "element_id", h.ElementID())
	})
	h.OnStateChange(func(e ytapi.StateChangeEvent) {
		s.recordState(p.Id, h.ElementID(), e.Data)
		if hasPosition(e.Data) {
			s.recordCurrentTime(p.Id, h.ElementID(), e.Target)
		}
	})
	h.OnError(func(e ytapi.ErrorEvent) {
		p.logger.Warn("player error", "element_id", h.ElementID(), "error", e.Data.String())
		s.recordError(p.Id, h.ElementID(), e.Data)
	})
}

func statusCtx(pageId, elementId string) (context.Context, context.CancelFunc) {
	ctx := ctxlogger.AppendCtx(context.Background(), slog.String("page_id", pageId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("element_id", elementId))
	return context.WithTimeout(ctx, statusWriteTimeout)
}

func (s *service) countWrite(ctx context.Context, op string, err error) {
	if err != nil {
		metrics.StatusWritesTotal.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "failed to write status", "op", op, "error", err)
		return
	}
	metrics.StatusWritesTotal.WithLabelValues("ok").Inc()
}

// recordVideo stores a fresh status for a newly bound video and starts the
// title lookup in the background.
func (s *service) recordVideo(ctx context.Context, pageId, elementId, videoId string) {
	wctx, cancel := statusCtx(pageId, elementId)
	defer cancel()

	err := s.statusRepo.SetVideo(wctx, &status.SetVideoParams{
		PageId:    pageId,
		ElementId: elementId,
		VideoId:   videoId,
		State:     int(ytapi.StateUnstarted),
		UpdatedAt: time.Now().Unix(),
	})
	s.countWrite(wctx, "video", err)
	if err != nil || videoId == "" || s.videoData == nil {
		return
	}

	s.logger.DebugContext(ctx, "enriching status", "page_id", pageId, "element_id", elementId, "video_id", videoId)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.enrich(pageId, elementId, videoId)
	}()
}

func (s *service) enrich(pageId, elementId, videoId string) {
	ctx := ctxlogger.AppendCtx(context.Background(), slog.String("page_id", pageId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("element_id", elementId))
	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	data, err := s.videoData.Get(ctx, videoId)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to get video data", "video_id", videoId, "error", err)
		return
	}

	applied, err := s.statusRepo.SetVideoData(ctx, &status.SetVideoDataParams{
		PageId:    pageId,
		ElementId: elementId,
		VideoId:   videoId,
		Title:     data.Title,
		Author:    data.AuthorName,
	})
	if err != nil {
		s.countWrite(ctx, "video_data", err)
		return
	}
	if !applied {
		// the player moved on to another video meanwhile
		metrics.StatusWritesTotal.WithLabelValues("stale").Inc()
		s.logger.DebugContext(ctx, "video data discarded", "video_id", videoId)
		return
	}
	s.countWrite(ctx, "video_data", nil)
}

func (s *service) recordState(pageId, elementId string, state ytapi.PlayerState) {
	ctx, cancel := statusCtx(pageId, elementId)
	defer cancel()

	err := s.statusRepo.SetState(ctx, &status.SetStateParams{
		PageId:    pageId,
		ElementId: elementId,
		State:     int(state),
		UpdatedAt: time.Now().Unix(),
	})
	s.countWrite(ctx, "state", err)
}

// hasPosition reports whether the player has a meaningful playback position
// in state.
func hasPosition(state ytapi.PlayerState) bool {
	switch state {
	case ytapi.StatePlaying, ytapi.StatePaused, ytapi.StateEnded:
		return true
	}
	return false
}

func (s *service) recordCurrentTime(pageId, elementId string, target ytapi.Player) {
	if target == nil {
		return
	}

	ctx, cancel := statusCtx(pageId, elementId)
	defer cancel()

	callCtx, callCancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer callCancel()

	seconds, err := target.GetCurrentTime(callCtx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to get current time", "error", err)
		return
	}

	err = s.statusRepo.SetCurrentTime(ctx, &status.SetCurrentTimeParams{
		PageId:      pageId,
		ElementId:   elementId,
		CurrentTime: seconds,
	})
	s.countWrite(ctx, "current_time", err)
}

func (s *service) recordError(pageId, elementId string, code ytapi.PlayerError) {
	ctx, cancel := statusCtx(pageId, elementId)
	defer cancel()

	err := s.statusRepo.SetError(ctx, &status.SetErrorParams{
		PageId:    pageId,
		ElementId: elementId,
		Error:     int(code),
		UpdatedAt: time.Now().Unix(),
	})
	s.countWrite(ctx, "error", err)
}
