package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	sessionKeyPrefix = "session:"
	userIndexPrefix  = "user-sessions:"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo persists sessions as JSON values with a native TTL, plus a
// per-user index set used for bulk revocation. Index entries may briefly
// outlive their session; reads treat a missing value as gone.
type RedisRepo struct {
	client *redis.Client
	log    zerolog.Logger
}

type RedisRepoOption func(*RedisRepo)

func WithLogger(log zerolog.Logger) RedisRepoOption {
	return func(r *RedisRepo) {
		r.log = log
	}
}

func NewRedisRepo(client *redis.Client, options ...RedisRepoOption) *RedisRepo {
	r := &RedisRepo{
		client: client,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *RedisRepo) Upsert(ctx context.Context, session *SessionData) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "RedisRepo.Upsert marshal")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Already expired; persisting would be immediately evicted anyway.
		if err := r.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl)
	pipe.SAdd(ctx, userIndexPrefix+session.UserID, session.ID)
	// The index must outlive every session it references: set a TTL when the
	// set has none, otherwise only ever extend it. Shortening it would make
	// DeleteByUser miss longer-lived sessions.
	pipe.ExpireNX(ctx, userIndexPrefix+session.UserID, ttl)
	pipe.ExpireGT(ctx, userIndexPrefix+session.UserID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "RedisRepo.Upsert exec")
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*SessionData, error) {
	payload, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "RedisRepo.Get")
	}

	var session SessionData
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "RedisRepo.Get unmarshal")
	}
	return &session, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	pipe.SRem(ctx, userIndexPrefix+session.UserID, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "RedisRepo.Delete exec")
	}
	return nil
}

func (r *RedisRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.client.SMembers(ctx, userIndexPrefix+userID).Result()
	if err != nil {
		return 0, errors.Wrap(err, "RedisRepo.DeleteByUser members")
	}

	removed := 0
	for _, id := range ids {
		deleted, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
		if err != nil {
			return removed, errors.Wrap(err, "RedisRepo.DeleteByUser del")
		}
		removed += int(deleted)
	}
	if err := r.client.Del(ctx, userIndexPrefix+userID).Err(); err != nil {
		return removed, errors.Wrap(err, "RedisRepo.DeleteByUser index del")
	}
	return removed, nil
}

func (r *RedisRepo) All(ctx context.Context) ([]*SessionData, error) {
	var all []*SessionData

	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // evicted between scan and read
			}
			return nil, errors.Wrap(err, "RedisRepo.All get")
		}
		var session SessionData
		if err := json.Unmarshal(payload, &session); err != nil {
			r.log.Warn().Str("key", iter.Val()).Err(err).Msg("skipping corrupt session payload")
			continue
		}
		all = append(all, &session)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "RedisRepo.All scan")
	}
	return all, nil
}
