// Package alert delivers pending lead alerts to operators.
package alert

import (
	"context"
	"errors"
)

// Message is one rendered alert.
type Message struct {
	Subject string
	HTML    string
}

// Sender delivers a rendered alert over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// MultiSender fans a message out to every channel. Delivery counts as done
// when at least one channel accepted it.
type MultiSender struct {
	senders []Sender
}

// NewMultiSender drops nil senders.
func NewMultiSender(senders ...Sender) *MultiSender {
	m := &MultiSender{}
	for _, s := range senders {
		if s != nil {
			m.senders = append(m.senders, s)
		}
	}
	return m
}

// Name implements Sender.
func (m *MultiSender) Name() string {
	return "multi"
}

// Len reports how many channels are configured.
func (m *MultiSender) Len() int {
	return len(m.senders)
}

// Send implements Sender.
func (m *MultiSender) Send(ctx context.Context, msg Message) error {
	if len(m.senders) == 0 {
		return ErrNoChannels
	}
	var errs []error
	for _, s := range m.senders {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m.senders) {
		return errors.Join(errs...)
	}
	return nil
}

// ErrNoChannels is returned when no delivery channel is configured.
var ErrNoChannels = errors.New("alert: no delivery channel configured")
