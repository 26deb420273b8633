package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/observability"
)

const (
	eventBufferSize = 16
	eventSubject    = "projeval.events"
	eventChannel    = "projeval:events"
)

// EventPublisher delivers realtime events to connected users.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.Event)
}

// EventService fans events out to local websocket subscribers and, when a bus
// is configured, to the other API instances.
type EventService interface {
	EventPublisher
	Subscribe(userID uint) (<-chan dto.Event, func())
	Start(ctx context.Context)
}

type eventService struct {
	nats   *nats.Conn
	redis  *redis.Client
	logger zerolog.Logger
	broker *eventBroker
	nodeID string
	now    func() time.Time
}

type eventEnvelope struct {
	Source string    `json:"source"`
	Event  dto.Event `json:"event"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.Event]struct{}
}

// NewEventService constructs the realtime event service. NATS is preferred over
// Redis pub/sub when both are available; with neither, delivery stays local.
func NewEventService(natsConn *nats.Conn, redisClient *redis.Client, logger zerolog.Logger) EventService {
	return &eventService{
		nats:   natsConn,
		redis:  redisClient,
		logger: logger.With().Str("component", "event_service").Logger(),
		broker: &eventBroker{subscribers: make(map[uint]map[chan dto.Event]struct{})},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *eventService) Start(ctx context.Context) {
	switch {
	case s.nats != nil:
		s.consumeNATS(ctx)
	case s.redis != nil:
		go s.consumeRedis(ctx)
	}
}

// Publish never fails the caller; bus errors are logged.
func (s *eventService) Publish(ctx context.Context, event dto.Event) {
	if event.UserID == 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	s.broker.broadcast(event)
	observability.EventsPublished().WithLabelValues(event.Type).Inc()

	payload, err := json.Marshal(eventEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	switch {
	case s.nats != nil:
		err = s.nats.Publish(eventSubject, payload)
	case s.redis != nil:
		err = s.redis.Publish(ctx, eventChannel, payload).Err()
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish event to bus")
	}
}

func (s *eventService) Subscribe(userID uint) (<-chan dto.Event, func()) {
	channel := make(chan dto.Event, eventBufferSize)
	s.broker.subscribe(userID, channel)
	observability.WebsocketClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.WebsocketClientsActive().Dec()
		})
	}

	return channel, cleanup
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(eventSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain events nats subscription")
		}
	}()
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, eventChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("events redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *eventService) handleEnvelope(payload []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(userID uint, ch chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.Event]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(userID uint, ch chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast drops the event for subscribers whose buffer is full.
func (b *eventBroker) broadcast(event dto.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
}
