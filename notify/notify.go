// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Message is one notification addressed to a topic's subscribers.
type Message struct {
	Topic   string    `json:"topic"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	PoolID  string    `json:"pool_id,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier delivers messages to every current subscriber of a topic.
// A nil error means the message was accepted for delivery by at least one
// channel. An error means nobody got it and the publish may be retried.
type Notifier interface {
	Publish(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the structured log. Used in development
// and when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Publish(ctx context.Context, msg Message) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"topic", msg.Topic,
		"pool_id", msg.PoolID,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// Multi publishes to every notifier. The message is accepted once any
// notifier takes it; the remaining failures are only logged.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		slog.ErrorContext(ctx, "notifier failed, others delivered",
			"topic", msg.Topic, "pool_id", msg.PoolID, "error", err)
	}
	return nil
}

// Closer is implemented by notifiers holding connections.
type Closer interface {
	Close() error
}

// Close releases any notifier in n that holds a connection
func Close(n Notifier) error {
	switch v := n.(type) {
	case Multi:
		var errs []error
		for _, inner := range v {
			errs = append(errs, Close(inner))
		}
		return errors.Join(errs...)
	case Closer:
		return v.Close()
	}
	return nil
}

// Options configures New
type Options struct {
	Kinds      []string
	AMQPURL    string
	TwilioFrom string
	TwilioTo   []string
}

// New builds the notifier for the configured kinds: log, amqp, twilio.
// Several kinds fan out through Multi.
func New(opts Options) (Notifier, error) {
	var out Multi
	for _, kind := range opts.Kinds {
		switch strings.TrimSpace(kind) {
		case "", "log":
			out = append(out, LogNotifier{})
		case "amqp":
			n, err := DialAMQP(opts.AMQPURL)
			if err != nil {
				Close(out)
				return nil, err
			}
			out = append(out, n)
		case "twilio":
			n, err := NewTwilio(opts.TwilioFrom, opts.TwilioTo)
			if err != nil {
				Close(out)
				return nil, err
			}
			out = append(out, n)
		default:
			Close(out)
			return nil, fmt.Errorf("unknown notifier %q", kind)
		}
	}

	switch len(out) {
	case 0:
		return LogNotifier{}, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
