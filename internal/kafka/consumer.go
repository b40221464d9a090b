// Package kafka ingests reading-activity messages from a Kafka topic and
// appends them to the achievement event queue.
//
// Message format (JSON):
//
//	{"user_id": "u1", "event_type": "book_completed", "payload": {"book_id": "b1"}}
//
// Malformed or invalid messages are logged and acknowledged. A store failure
// ends the claim without acknowledging, so the message is redelivered when
// the session restarts.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/shelfquest/achievements-backend/internal/config"
	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/services"
)

// Enqueuer appends an event to the queue. *services.EventProcessor satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID, eventType, payload string) (*domain.AchievementEvent, error)
}

// Message is the wire format of a reading-activity record.
type Message struct {
	UserID    string          `json:"user_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Consumer reads reading-activity messages with a consumer group.
type Consumer struct {
	cfg    config.KafkaConfig
	events Enqueuer
	group  sarama.ConsumerGroup

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ready  chan bool
}

// NewConsumer connects a consumer group to the configured brokers.
func NewConsumer(cfg config.KafkaConfig, events Enqueuer) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_0_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		cfg:    cfg,
		events: events,
		group:  group,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan bool),
	}, nil
}

// Start begins consuming and returns once the first session is set up.
func (c *Consumer) Start() error {
	log.Info().
		Strs("brokers", c.cfg.Brokers).
		Str("topic", c.cfg.Topic).
		Str("group_id", c.cfg.GroupID).
		Msg("starting kafka consumer")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			h := &groupHandler{events: c.events, ready: c.ready}
			if err := c.group.Consume(c.ctx, []string{c.cfg.Topic}, h); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				log.Error().Err(err).Msg("kafka consume failed")
			}
			if c.ctx.Err() != nil {
				return
			}
			c.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
	log.Info().Msg("kafka consumer ready")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.group.Errors():
				if !ok {
					return
				}
				log.Error().Err(err).Msg("kafka consumer group error")
			}
		}
	}()
	return nil
}

// Stop cancels consumption and closes the group.
func (c *Consumer) Stop() error {
	log.Info().Msg("stopping kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler.
type groupHandler struct {
	events Enqueuer
	ready  chan bool
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.ready != nil {
		close(h.ready)
	}
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handle(session.Context(), msg); err != nil {
				return err
			}
			session.MarkMessage(msg, "")
		}
	}
}

// handle enqueues one message. Only store failures are returned.
func (h *groupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var m Message
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		log.Warn().Err(err).
			Int64("offset", msg.Offset).
			Int32("partition", msg.Partition).
			Msg("dropping undecodable reading-activity message")
		return nil
	}

	payload := ""
	if len(m.Payload) > 0 && string(m.Payload) != "null" {
		payload = string(m.Payload)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ev, err := h.events.Enqueue(ctx, m.UserID, m.EventType, payload)
	switch {
	case errors.Is(err, services.ErrEmptyUser), errors.Is(err, services.ErrInvalidEvent):
		log.Warn().Err(err).
			Int64("offset", msg.Offset).
			Str("user_id", m.UserID).
			Str("event_type", m.EventType).
			Msg("dropping invalid reading-activity message")
		return nil
	case err != nil:
		return fmt.Errorf("enqueue offset %d: %w", msg.Offset, err)
	}
	log.Debug().Str("event_id", ev.ID).Str("user_id", ev.UserID).Msg("reading activity enqueued")
	return nil
}
