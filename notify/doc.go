// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify delivers settlement notifications to a topic's subscribers.

# Notifiers

All transports implement Notifier:

	err := n.Publish(ctx, notify.Message{Topic: "pool-settlements", Subject: s, Body: b})

  - LogNotifier: writes the message to slog (development default)
  - AMQPNotifier: publishes JSON to a durable RabbitMQ queue named after the topic
  - TwilioNotifier: texts every number on a configured distribution list
  - Multi: fans out to several notifiers; fails only when all of them fail

New builds one from configuration:

	n, err := notify.New(notify.Options{Kinds: []string{"amqp", "twilio"}, ...})
	defer notify.Close(n)

Publish returning nil means the message was accepted; delivery receipts are
not tracked.
*/
package notify
