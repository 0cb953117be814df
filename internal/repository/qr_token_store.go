package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shine-Infosolutions/eventbackend/internal/utils"
)

// QRTokenStore keeps the opaque tokens printed on dispatched passes.  A
// booking has at most one live token: issuing a new one revokes the old.
//
//	qr:tok:<token>       -> booking id
//	qr:booking:<booking> -> token
type QRTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewQRTokenStore(rdb *redis.Client, ttl time.Duration) *QRTokenStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &QRTokenStore{rdb: rdb, ttl: ttl}
}

// ErrTokenStoreUnavailable is returned when Redis is not configured.
var ErrTokenStoreUnavailable = errors.New("token store unavailable")

const (
	qrTokenPrefix   = "qr:tok:"
	qrBookingPrefix = "qr:booking:"
)

// KEYS[1] = qr:booking:<id>, ARGV[1] = new token, ARGV[2] = booking id,
// ARGV[3] = ttl seconds
var issueScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if old then
    redis.call('DEL', 'qr:tok:' .. old)
end
redis.call('SET', 'qr:tok:' .. ARGV[1], ARGV[2], 'EX', ARGV[3])
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[3])
return 1
`)

// Issue mints a fresh token for bookingID.
func (s *QRTokenStore) Issue(ctx context.Context, bookingID string) (string, error) {
	if s == nil || s.rdb == nil {
		return "", ErrTokenStoreUnavailable
	}
	tok, err := utils.RandomHex(32)
	if err != nil {
		return "", err
	}
	secs := int64(s.ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	if err := issueScript.Run(ctx, s.rdb, []string{qrBookingPrefix + bookingID}, tok, bookingID, secs).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

// Resolve maps a scanned token back to its booking id.
func (s *QRTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	if s == nil || s.rdb == nil {
		return "", ErrTokenStoreUnavailable
	}
	id, err := s.rdb.Get(ctx, qrTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return id, err
}

// Revoke drops any live token of bookingID, used when the booking is deleted.
func (s *QRTokenStore) Revoke(ctx context.Context, bookingID string) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	tok, err := s.rdb.Get(ctx, qrBookingPrefix+bookingID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, qrTokenPrefix+tok, qrBookingPrefix+bookingID).Err()
}
