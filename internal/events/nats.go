package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ErrUnknownTopic is returned when publishing outside the ledger topics.
var ErrUnknownTopic = errors.New("unknown ledger topic")

// Header names set on every published ledger notice.
const (
	HeaderMessage = "Ballot-Message"
	HeaderEventID = "Ballot-Event-Id"
)

// NATSPublisher publishes ledger notices to NATS as JSON. The trace context
// of the publishing request travels in the message headers alongside the
// user-facing message and the affected event id.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("ballot-server"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish implements Publisher. Only the ledger topics are accepted.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if !knownTopic(topic) {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	switch e := event.(type) {
	case EventCreated:
		msg.Header.Set(HeaderMessage, e.Message)
		if e.Event != nil {
			msg.Header.Set(HeaderEventID, fmt.Sprint(e.Event.ID))
		}
	case VoteRecorded:
		msg.Header.Set(HeaderMessage, e.Message)
		msg.Header.Set(HeaderEventID, fmt.Sprint(e.EventID))
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return p.conn.PublishMsg(msg)
}

// Close implements Publisher.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber receives ledger notices from NATS.
type NATSSubscriber struct {
	conn    *nats.Conn
	dropped atomic.Int64
}

// NewNATSSubscriber connects to NATS and keeps reconnecting forever. Extra
// options, such as disconnect and reconnect handlers, are applied last.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	defaults := []nats.Option{
		nats.Name("ballot-watch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe delivers notices matching topic, which must be a ledger topic or
// TopicAll. Notices that arrive while the channel is full are dropped and
// counted; a consumer that re-reads the ledger on any notice loses nothing.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Notice, func(), error) {
	if topic != TopicAll && !knownTopic(topic) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	ch := make(chan Notice, 64)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- Notice{Topic: msg.Subject, Data: msg.Data}:
		default:
			s.dropped.Add(1)
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			defer mu.Unlock()
			closed = true
			// Undelivered notices are discarded with the subscription.
			for len(ch) > 0 {
				<-ch
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Dropped reports how many notices were discarded because a channel was full.
func (s *NATSSubscriber) Dropped() int64 { return s.dropped.Load() }

// Close implements Subscriber.
func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

func knownTopic(topic string) bool {
	switch topic {
	case TopicLedgerInitialized, TopicEventCreated, TopicVoteRecorded:
		return true
	}
	return false
}

