package cache

import (
	"context"
	"fmt"

	rediscommon "wisefido-vitals-hub/common/redis"
	"wisefido-vitals-hub/internal/models"

	"github.com/go-redis/redis/v8"
)

// storedReading 写入读数流的消息体
type storedReading struct {
	ReadingID int64 `json:"reading_id"`
	models.Reading
}

// ReadingStream 将已存储的读数发布到 Redis Stream
type ReadingStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewReadingStream(client *redis.Client, stream string, maxLen int64) *ReadingStream {
	return &ReadingStream{client: client, stream: stream, maxLen: maxLen}
}

func (s *ReadingStream) PublishReading(ctx context.Context, readingID int64, reading models.Reading) error {
	_, err := rediscommon.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, storedReading{
		ReadingID: readingID,
		Reading:   reading,
	})
	if err != nil {
		return fmt.Errorf("failed to publish reading %d to %s: %w", readingID, s.stream, err)
	}
	return nil
}
