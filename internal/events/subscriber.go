package events

import (
	"encoding/json"
	"fmt"
)

// Subscriber receives ledger notices from the event bus.
type Subscriber interface {
	// Subscribe delivers notices on the returned channel. Call the returned
	// cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Notice, func(), error)
	Close() error
}

// Notice is one message received from the bus.
type Notice struct {
	Topic string
	Data  []byte
}

// Decode unmarshals the payload into the type published on its topic:
// LedgerInitialized, EventCreated or VoteRecorded.
func (n Notice) Decode() (any, error) {
	var v any
	switch n.Topic {
	case TopicLedgerInitialized:
		v = &LedgerInitialized{}
	case TopicEventCreated:
		v = &EventCreated{}
	case TopicVoteRecorded:
		v = &VoteRecorded{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, n.Topic)
	}
	if err := json.Unmarshal(n.Data, v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", n.Topic, err)
	}
	switch v := v.(type) {
	case *LedgerInitialized:
		return *v, nil
	case *EventCreated:
		return *v, nil
	case *VoteRecorded:
		return *v, nil
	}
	panic("unreachable")
}
