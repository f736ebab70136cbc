package redis

import (
	"context"
	"fmt"

	"github.com/sharetube/embed/internal/repository/status"
)

// SetVideo starts a new snapshot for the video, dropping data of the
// previous one.
func (r repo) SetVideo(ctx context.Context, params *status.SetVideoParams) error {
	funcName := "status.redis.SetVideo"
	r.logger.DebugContext(ctx, funcName, "params", params)

	statusKey := r.getStatusKey(params.PageId, params.ElementId)
	pipe := r.rc.TxPipeline()
	pipe.HDel(ctx, statusKey, "title", "author", "current_time")
	pipe.HSet(ctx, statusKey,
		"video_id", params.VideoId,
		"state", params.State,
		"error", 0,
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, statusKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set video: %w", err)
	}

	return nil
}

// SetVideoData reports whether the data was stored. It is not when the
// player moved on to another video in the meantime.
func (r repo) SetVideoData(ctx context.Context, params *status.SetVideoDataParams) (bool, error) {
	funcName := "status.redis.SetVideoData"
	r.logger.DebugContext(ctx, funcName, "params", params)

	statusKey := r.getStatusKey(params.PageId, params.ElementId)
	res, err := r.rc.EvalSha(ctx, r.setIfVideoScript, []string{statusKey},
		params.VideoId,
		params.Title,
		params.Author,
		r.expireDuration.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set video data: %w", err)
	}

	return res == 1, nil
}

func (r repo) SetState(ctx context.Context, params *status.SetStateParams) error {
	funcName := "status.redis.SetState"
	r.logger.DebugContext(ctx, funcName, "params", params)

	statusKey := r.getStatusKey(params.PageId, params.ElementId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, statusKey,
		"state", params.State,
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, statusKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	return nil
}

func (r repo) SetCurrentTime(ctx context.Context, params *status.SetCurrentTimeParams) error {
	funcName := "status.redis.SetCurrentTime"
	r.logger.DebugContext(ctx, funcName, "params", params)

	statusKey := r.getStatusKey(params.PageId, params.ElementId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, statusKey, "current_time", params.CurrentTime)
	pipe.Expire(ctx, statusKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set current time: %w", err)
	}

	return nil
}

func (r repo) SetError(ctx context.Context, params *status.SetErrorParams) error {
	funcName := "status.redis.SetError"
	r.logger.DebugContext(ctx, funcName, "params", params)

	statusKey := r.getStatusKey(params.PageId, params.ElementId)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, statusKey,
		"error", params.Error,
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, statusKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set error: %w", err)
	}

	return nil
}

func (r repo) Get(ctx context.Context, pageId, elementId string) (status.Status, error) {
	funcName := "status.redis.Get"
	r.logger.DebugContext(ctx, funcName, "page_id", pageId, "element_id", elementId)

	statusKey := r.getStatusKey(pageId, elementId)
	cmd := r.rc.HGetAll(ctx, statusKey)
	if err := cmd.Err(); err != nil {
		return status.Status{}, fmt.Errorf("failed to get status: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return status.Status{}, status.ErrStatusNotFound
	}

	var s status.Status
	if err := cmd.Scan(&s); err != nil {
		return status.Status{}, fmt.Errorf("failed to scan status: %w", err)
	}

	r.rc.Expire(ctx, statusKey, r.expireDuration)

	return s, nil
}

func (r repo) Remove(ctx context.Context, pageId, elementId string) error {
	funcName := "status.redis.Remove"
	r.logger.DebugContext(ctx, funcName, "page_id", pageId, "element_id", elementId)

	res, err := r.rc.Del(ctx, r.getStatusKey(pageId, elementId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove status: %w", err)
	}

	if res == 0 {
		return status.ErrStatusNotFound
	}

	return nil
}

// RemovePage removes the snapshots of every player of the page and returns
// how many were removed.
func (r repo) RemovePage(ctx context.Context, pageId string) (int, error) {
	funcName := "status.redis.RemovePage"
	r.logger.DebugContext(ctx, funcName, "page_id", pageId)

	var keys []string
	iter := r.rc.Scan(ctx, 0, r.getStatusKey(pageId, "*"), 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan status keys: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	res, err := r.rc.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove page statuses: %w", err)
	}

	return int(res), nil
}
