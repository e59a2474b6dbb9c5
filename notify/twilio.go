// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// smsSender is the part of the Twilio API the notifier uses.
type smsSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier texts every number on a fixed distribution list.
// Credentials come from TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN.
type TwilioNotifier struct {
	api  smsSender
	from string
	to   []string
}

func NewTwilio(from string, to []string) (*TwilioNotifier, error) {
	if from == "" || len(to) == 0 {
		return nil, fmt.Errorf("twilio notifier: TWILIO_FROM and TWILIO_TO are required")
	}
	client := twilio.NewRestClient()
	return &TwilioNotifier{api: client.Api, from: from, to: to}, nil
}

// Publish texts every number. It fails only when no text went out; numbers
// that could not be reached are logged.
func (n *TwilioNotifier) Publish(ctx context.Context, msg Message) error {
	text := msg.Subject + "\n\n" + msg.Body

	var (
		errs []error
		sent int
	)
	for _, to := range n.to {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(to)
		params.SetFrom(n.from)
		params.SetBody(text)

		if _, err := n.api.CreateMessage(params); err != nil {
			errs = append(errs, fmt.Errorf("sms to %s: %w", to, err))
			continue
		}
		sent++
	}

	if sent == 0 {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		slog.ErrorContext(ctx, "sms not delivered", "pool_id", msg.PoolID, "error", err)
	}
	return nil
}
