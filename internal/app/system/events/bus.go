package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler receives events. It runs on the publisher's goroutine and must not block.
type Handler func(Event)

// Bus is an in-process publish/subscribe hub keyed by user ID.
// It is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]Handler // userID -> subscription ID -> handler
	log  *zap.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[string]map[string]Handler),
		log:  logger,
	}
}

// Subscribe registers h for userID's events and returns a subscription ID.
func (b *Bus) Subscribe(userID string, h Handler) string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.subs[userID]
	if !ok {
		m = make(map[string]Handler)
		b.subs[userID] = m
	}
	m[id] = h
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(userID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.subs[userID]
	if !ok {
		return
	}
	delete(m, subID)
	if len(m) == 0 {
		delete(b.subs, userID)
	}
}

// Subscribers returns how many handlers are registered for userID.
func (b *Bus) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

// Publish delivers e to every subscriber of e.UserID and returns the number of
// handlers that ran. ID and At are filled in when empty. A panicking handler
// is logged and does not stop delivery to the others.
func (b *Bus) Publish(e Event) int {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.UserID]))
	for _, h := range b.subs[e.UserID] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}

	b.log.Debug("event published",
		zap.String("kind", string(e.Kind)),
		zap.String("user_id", e.UserID),
		zap.Int("delivered", len(handlers)))
	return len(handlers)
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("kind", string(e.Kind)),
				zap.String("event_id", e.ID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	h(e)
}
