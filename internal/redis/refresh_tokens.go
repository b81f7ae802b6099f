package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/config"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionPrefix = "session:"

// RefreshTokenRepository keeps refresh-token sessions with a TTL.
type RefreshTokenRepository struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
}

func NewRefreshTokenRepository(pool *redis.Pool, logger *zap.SugaredLogger) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool, logger: logger}
}

func (r *RefreshTokenRepository) Add(ctx context.Context, session string, id uuid.UUID) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer r.close(conn)

	reply, err := redis.String(conn.Do("SET", sessionPrefix+session, id.String(), "EX", int(config.SessionTTl().Seconds()), "NX"))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("SET session: %w", err)
	}

	if reply != "OK" {
		return model.ErrAlreadyExists
	}

	return nil
}

func (r *RefreshTokenRepository) Get(ctx context.Context, session string) (uuid.UUID, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get connection: %w", err)
	}
	defer r.close(conn)

	reply, err := redis.String(conn.Do("GET", sessionPrefix+session))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return uuid.Nil, model.ErrNoRecord
		}
		return uuid.Nil, fmt.Errorf("GET session: %w", err)
	}

	id, err := uuid.Parse(reply)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session user id %q: %w", reply, err)
	}

	return id, nil
}

func (r *RefreshTokenRepository) Refresh(ctx context.Context, old, new string) error {
	id, err := r.Get(ctx, old)
	if err != nil {
		return err
	}

	if err := r.Add(ctx, new, id); err != nil {
		return err
	}

	return r.Delete(ctx, old)
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, session string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer r.close(conn)

	removed, err := redis.Int(conn.Do("DEL", sessionPrefix+session))
	if err != nil {
		return fmt.Errorf("DEL session: %w", err)
	}

	if removed == 0 {
		return model.ErrNoRecord
	}

	return nil
}

func (r *RefreshTokenRepository) close(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		r.logger.Errorw("failed closing redis connection", "err", err)
	}
}
