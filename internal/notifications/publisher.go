package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/config"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher broadcasts domain events to a band's channel. Delivery is
// fire-and-forget, at most once: subscribers that are offline miss the
// event, and no correctness path depends on delivery.
type Publisher struct {
	pool   *redis.Pool
	logger *zap.SugaredLogger
}

func NewPublisher(pool *redis.Pool, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{pool: pool, logger: logger}
}

type Event struct {
	Name      string      `json:"name"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func (p *Publisher) Publish(ctx context.Context, bandID uuid.UUID, name string, payload interface{}) error {
	body, err := json.Marshal(Event{
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := p.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			p.logger.Errorw("failed closing redis connection", "err", err)
		}
	}()

	if _, err := conn.Do("PUBLISH", config.NotificationsChannelPrefix()+bandID.String(), body); err != nil {
		return fmt.Errorf("PUBLISH event: %w", err)
	}

	return nil
}

type Message struct {
	BandID  uuid.UUID
	Name    string
	Payload interface{}
}

const batchSize = 100

// PublishBatch fans a set of events out concurrently. Individual failures
// are logged, never returned: scheduling must not fail because a
// notification did.
func (p *Publisher) PublishBatch(ctx context.Context, ms []*Message) {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < len(ms); i += batchSize {
		from := i
		to := i + batchSize
		if to > len(ms) {
			to = len(ms)
		}

		g.Go(func() error {
			for _, m := range ms[from:to] {
				if err := p.Publish(ctx, m.BandID, m.Name, m.Payload); err != nil {
					p.logger.Errorw("failed publishing event", "event", m.Name, "band_id", m.BandID, "err", err)
				}
			}
			return nil
		})
	}

	_ = g.Wait()
}
