package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"graphview/pkg/logging"
)

// TopicConfig configures buffering for a topic
type TopicConfig struct {
	BufferSize int  // Events to keep for replay (0 = none)
	ReplayAll  bool // Replay the whole buffer, or only the last event
}

// SSEPublisher implements Publisher for Server-Sent Events delivery
type SSEPublisher struct {
	mu          sync.RWMutex
	subs        map[string]map[*subscription]bool // topic -> subscriptions
	version     map[string]int                    // topic -> version counter
	buffer      map[string][]Event                // topic -> replay ring
	topicConfig map[string]TopicConfig
	closed      bool
}

// NewSSEPublisher creates an SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:        make(map[string]map[*subscription]bool),
		version:     make(map[string]int),
		buffer:      make(map[string][]Event),
		topicConfig: make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets the replay buffering for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, cfg TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = cfg
}

// Subscribe creates a subscription. The replay buffer, if configured, is
// delivered to the new subscriber first.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("publisher is closed")
	}

	sub := &subscription{
		topic:     topic,
		events:    make(chan Event, 100), // Buffered so publishers never block
		publisher: p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*subscription]bool)
	}
	p.subs[topic][sub] = true

	cfg := p.topicConfig[topic]
	replay := append([]Event(nil), p.buffer[topic]...)
	p.mu.Unlock()

	if len(replay) > 0 && !cfg.ReplayAll {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("replay dropped for new subscriber", "topic", topic)
		}
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Slow subscribers
// with a full channel miss the event rather than blocking the publisher.
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("publisher is closed")
	}

	p.version[topic]++

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    payload,
		Version: p.version[topic],
	}

	if cfg := p.topicConfig[topic]; cfg.BufferSize > 0 {
		ring := append(p.buffer[topic], event)
		if len(ring) > cfg.BufferSize {
			ring = ring[len(ring)-cfg.BufferSize:]
		}
		p.buffer[topic] = ring
	}

	for sub := range p.subs[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber channel full, dropping event",
				"topic", topic, "version", event.Version)
		}
	}

	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subs {
		for sub := range subs {
			close(sub.events)
		}
	}
	p.subs = make(map[string]map[*subscription]bool)

	return nil
}

func (p *SSEPublisher) unsubscribe(sub *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

type subscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	closed    bool
	mu        sync.Mutex
}

func (s *subscription) Topic() string {
	return s.topic
}

func (s *subscription) Events() <-chan Event {
	return s.events
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.publisher.unsubscribe(s)

	return nil
}

// WriteSSE frames an event for an SSE response: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
