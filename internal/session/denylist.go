package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nishi-Taiga/F-education-sub002/internal/crypto"
)

// Denylist holds access tokens revoked by sign-out until they would have expired anyway.
type Denylist struct {
	redis *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{redis: client}
}

type revocationRecord struct {
	UserID    string `json:"user_id"`
	RevokedAt int64  `json:"revoked_at"`
}

func (d *Denylist) Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if d == nil || d.redis == nil {
		return errors.New("redis_not_configured")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(revocationRecord{UserID: userID, RevokedAt: time.Now().UTC().Unix()})
	if err != nil {
		return err
	}
	return d.redis.Set(ctx, revokedKey(token), data, ttl).Err()
}

func (d *Denylist) Revoked(ctx context.Context, token string) (bool, error) {
	if d == nil || d.redis == nil {
		return false, nil
	}
	err := d.redis.Get(ctx, revokedKey(token)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func revokedKey(token string) string {
	return fmt.Sprintf("session_revoked:%s", crypto.HashToken(token))
}
