// Package lock guards per-room writes across API instances with a redis
// SET NX lease.
package lock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hotelbooking/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "room_lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RoomLock struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRoomLock(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RoomLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RoomLock{client: client, ttl: ttl, log: log}
}

func key(roomID int64) string {
	return keyPrefix + strconv.FormatInt(roomID, 10)
}

// Acquire takes the room lease. A lease held elsewhere is reported as
// domain.ErrConflict straight away; callers retry rather than wait.
func (l *RoomLock) Acquire(ctx context.Context, roomID int64) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key(roomID), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire room lock %d: %w", roomID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: room %d is locked", domain.ErrConflict, roomID)
	}

	release := func() {
		// the caller's ctx may already be cancelled
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key(roomID)}, token).Err(); err != nil {
			l.log.WithError(err).WithField("room_id", roomID).Warn("failed to release room lock")
		}
	}
	return release, nil
}

// Held reports whether any instance currently holds the room lease.
func (l *RoomLock) Held(ctx context.Context, roomID int64) (bool, error) {
	n, err := l.client.Exists(ctx, key(roomID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
