package repositories

import (
	"context"
	"sync"
)

// Topic names one class of store change that live queries can react to.
type Topic string

const (
	TopicChannels Topic = "channels"
	TopicVods     Topic = "vods"
	TopicGuide    Topic = "guide"
	TopicProgress Topic = "progress"
)

// Hub is the observer registry behind live queries. Writers publish a topic
// after their transaction commits; each subscriber holds a one-slot channel
// where a pending signal is collapsed with the next one, so a slow reader
// misses intermediate updates but always learns about the latest state.
type Hub struct {
	mu   sync.Mutex
	subs map[Topic][]chan struct{}
}

// NewHub creates an empty observer registry.
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic][]chan struct{})}
}

// Publish signals every subscriber of the given topics. Never blocks.
func (h *Hub) Publish(topics ...Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		for _, ch := range h.subs[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribe registers for change signals on the given topics until ctx is
// done. The returned channel carries coalesced signals, not payloads;
// subscribers re-query for a fresh snapshot.
func (h *Hub) Subscribe(ctx context.Context, topics ...Topic) <-chan struct{} {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	for _, topic := range topics {
		h.subs[topic] = append(h.subs[topic], ch)
	}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, topic := range topics {
			subs := h.subs[topic]
			for i, c := range subs {
				if c == ch {
					h.subs[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		}
	}()

	return ch
}

// watch drives one live query: it emits a snapshot immediately, then a
// fresh one after every signal on the subscription, stopping when ctx is
// done. Failed re-queries end the stream; a live query is best-effort and
// the consumer restarts it.
func watch[T any](ctx context.Context, hub *Hub, query func() (T, error), topics ...Topic) <-chan T {
	out := make(chan T, 1)
	signals := hub.Subscribe(ctx, topics...)

	send := func(snapshot T) {
		select {
		case out <- snapshot:
		default:
			select {
			case <-out:
			default:
			}
			out <- snapshot
		}
	}

	go func() {
		defer close(out)

		snapshot, err := query()
		if err != nil {
			return
		}
		send(snapshot)

		for {
			select {
			case <-signals:
				snapshot, err = query()
				if err != nil {
					return
				}
				send(snapshot)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
