package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc               *redis.Client
	expireDuration   time.Duration
	setIfVideoScript string
	logger           *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	if logger == nil {
		logger = slog.Default()
	}

	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
		// sets title and author only while the player still shows the video
		// the data was fetched for
		setIfVideoScript: rc.ScriptLoad(context.Background(), `
			if redis.call('HGET', KEYS[1], 'video_id') ~= ARGV[1] then
				return 0
			end
			redis.call('HSET', KEYS[1], 'title', ARGV[2], 'author', ARGV[3])
			redis.call('PEXPIRE', KEYS[1], ARGV[4])
			return 1
		`).Val(),
	}
}

func (r repo) getStatusKey(pageId, elementId string) string {
	return "page:" + pageId + ":player:" + elementId
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
