package events

import (
	"sync"
	"time"
)

// Type names a reservation lifecycle event.
type Type string

const (
	ReservationCreated        Type = "reservation.created"
	ReservationCancelled      Type = "reservation.cancelled"
	ReservationReactivated    Type = "reservation.reactivated"
	ReservationPaymentToggled Type = "reservation.payment_toggled"
	ReservationDeleted        Type = "reservation.deleted"
)

// Event describes a committed change to a reservation.
type Event struct {
	Type          Type
	ReservationID string
	RoomNumber    string
	CustomerID    string
	Origin        string
	Paid          bool
	OccurredAt    time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub for reservation events.
type Bus struct {
	subscribers map[Type][]Handler
	all         []Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously
// on the caller's goroutine.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
