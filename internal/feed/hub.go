// Package feed fans milestone snapshots out to live subscribers.
package feed

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fundhub/internal/chain"
	"fundhub/internal/domain"
)

// DefaultBuffer is how many undelivered messages a subscriber may queue
// before it is dropped as too slow.
const DefaultBuffer = 16

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("feed closed")

// Message is one update for a milestone. Snapshot is always a full
// replacement of the milestone record.
type Message struct {
	MilestoneID    string                  `json:"milestoneId"`
	Snapshot       *domain.MilestoneRecord `json:"snapshot,omitempty"`
	AllowedActions []domain.Trigger        `json:"allowedActions,omitempty"`
	Transitions    []domain.Transition     `json:"transitions,omitempty"`
	Event          *chain.Event            `json:"event,omitempty"`
	Stale          bool                    `json:"stale,omitempty"`
	Seq            uint64                  `json:"seq"`
	At             time.Time               `json:"at"`
}

// Subscription receives messages for one milestone in publish order.
type Subscription struct {
	MilestoneID string

	hub  *Hub
	ch   chan Message
	once sync.Once

	mu  sync.Mutex
	err error
}

// C delivers messages until the subscription is released or dropped.
func (s *Subscription) C() <-chan Message { return s.ch }

// Err reports why the channel closed. It is nil after a plain Release.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Release detaches the subscription. It is safe to call more than once and
// from any exit path.
func (s *Subscription) Release() {
	s.hub.remove(s, nil)
}

func (s *Subscription) close(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.ch)
	})
}

// Hub routes published messages to the subscribers of each milestone.
type Hub struct {
	buffer int

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	seq    uint64
	closed bool
}

// NewHub creates a hub; buffer <= 0 selects DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{buffer: buffer, subs: map[string]map[*Subscription]struct{}{}}
}

// Subscribe registers a subscriber for milestoneID.
func (h *Hub) Subscribe(milestoneID string) (*Subscription, error) {
	if milestoneID == "" {
		return nil, fmt.Errorf("%w: milestone id is required", domain.ErrSubscriptionFailure)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubscriptionFailure, ErrHubClosed)
	}
	sub := &Subscription{MilestoneID: milestoneID, hub: h, ch: make(chan Message, h.buffer)}
	set, ok := h.subs[milestoneID]
	if !ok {
		set = map[*Subscription]struct{}{}
		h.subs[milestoneID] = set
	}
	set[sub] = struct{}{}
	return sub, nil
}

// Publish delivers msg to every subscriber of its milestone without
// blocking. A subscriber whose buffer is full is dropped with
// ErrSubscriptionFailure. It returns the number of subscribers reached.
func (h *Hub) Publish(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	msg.Seq = h.seq
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	delivered := 0
	for sub := range h.subs[msg.MilestoneID] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			h.dropLocked(sub, fmt.Errorf("%w: subscriber fell behind", domain.ErrSubscriptionFailure))
		}
	}
	return delivered
}

// Subscribers counts the live subscriptions for milestoneID.
func (h *Hub) Subscribers(milestoneID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[milestoneID])
}

// Close drops every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			h.dropLocked(sub, fmt.Errorf("%w: %w", domain.ErrSubscriptionFailure, ErrHubClosed))
		}
	}
}

func (h *Hub) remove(sub *Subscription, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub, err)
}

func (h *Hub) dropLocked(sub *Subscription, err error) {
	if set, ok := h.subs[sub.MilestoneID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.MilestoneID)
		}
	}
	sub.close(err)
}
