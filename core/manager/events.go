package manager

import "sync"

// EventType identifies what happened.
type EventType string

const (
	DocumentCreated  EventType = "document_created"
	DocumentSaved    EventType = "document_saved"
	DocumentDeleted  EventType = "document_deleted"
	DocumentRestored EventType = "document_restored"
	ExportFinished   EventType = "export_finished"
	BackupFinished   EventType = "backup_finished"
)

// Event is delivered to subscribers after the operation it describes has
// committed. For background jobs OK and Message carry the outcome.
type Event struct {
	Type       EventType
	DocumentID string
	Name       string
	Path       string
	OK         bool
	Message    string
}

// Subscriber receives events. Handlers run on the calling goroutine (or
// the job goroutine for background work) and must not block.
type Subscriber interface {
	Notify(Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

func (f SubscriberFunc) Notify(e Event) { f(e) }

type eventBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Subscriber
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]Subscriber)}
}

func (b *eventBus) subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[b.next] = s
	return b.next
}

func (b *eventBus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

func (b *eventBus) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.Notify(e)
	}
}
