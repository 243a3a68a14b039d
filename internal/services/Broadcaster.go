package services

import (
	"fsd/internal/models"
	"fsd/internal/providers"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	MessagePushState = "pushState"
	MessageToast     = "toast"
	MessageBadge     = "badge"
)

// PushMessage is sent to every registered display surface. A pushState
// message carries the snapshot fields inline.
type PushMessage struct {
	Type string `json:"type"`
	*models.Snapshot
	Entries         []ToastEntry `json:"entries,omitempty"`
	DurationSeconds int          `json:"durationSeconds,omitempty"`
	Count           *int         `json:"count,omitempty"`
}

type PublisherInterface interface {
	Publish(msg PushMessage)
}

type BroadcasterInterface interface {
	PublisherInterface
	Subscribe() (string, <-chan PushMessage)
	Unsubscribe(id string)
	SubscriberCount() int
	// Dropped counts messages lost to full subscriber buffers.
	Dropped() int64
}

// Broadcaster fans messages out to subscribers without blocking the
// publisher; a subscriber whose buffer is full misses that message.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan PushMessage
	buffer      int
	dropped     atomic.Int64
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
}

func (b *Broadcaster) Subscribe() (string, <-chan PushMessage) {
	id := uuid.NewString()
	ch := make(chan PushMessage, b.buffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	n := len(b.subscribers)
	b.mu.Unlock()

	b.metrics.SetSubscribers(n)
	b.logger.Debugf(providers.TypeApp, "Subscriber %s registered (%d total)", id, n)
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	n := len(b.subscribers)
	b.mu.Unlock()

	if ok {
		b.metrics.SetSubscribers(n)
		b.logger.Debugf(providers.TypeApp, "Subscriber %s removed (%d total)", id, n)
	}
}

func (b *Broadcaster) Publish(msg PushMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			b.dropped.Inc()
			b.metrics.IncDroppedMessages()
			b.logger.Warnf(providers.TypeApp, "Subscriber %s is slow, dropped %s message", id, msg.Type)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

func NewBroadcaster(logger providers.Logger, metrics providers.MetricsProviderInterface) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan PushMessage),
		buffer:      16,
		logger:      logger,
		metrics:     metrics,
	}
}
