package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Provider is the subscriber side of the channel. It owns id generation,
// the append/remove/clear lifecycle and timer-scheduled auto-dismiss.
type Provider struct {
	mu     sync.RWMutex
	items  []Notification
	timers map[string]*time.Timer
}

// NewProvider creates a provider and registers it on the channel.
func NewProvider(ch *Channel) *Provider {
	p := &Provider{timers: make(map[string]*time.Timer)}
	ch.Register(p.Add)
	return p
}

// Add assigns an id, appends the notification and, when a timeout is set,
// schedules its removal.
func (p *Provider) Add(n Notification) {
	n.ID = uuid.New().String()

	p.mu.Lock()
	p.items = append(p.items, n)
	if n.Timeout > 0 {
		id := n.ID
		p.timers[id] = time.AfterFunc(n.Timeout, func() { p.Remove(id) })
	}
	p.mu.Unlock()
}

// Remove dismisses a notification by id. Unknown ids are ignored.
func (p *Provider) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
	for i, n := range p.items {
		if n.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

// Clear dismisses every notification.
func (p *Provider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.items = nil
}

// List returns a copy of the live notifications in arrival order.
func (p *Provider) List() []Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Notification, len(p.items))
	copy(out, p.items)
	return out
}
