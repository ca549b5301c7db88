// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package event publishes authorization lifecycle events to RabbitMQ so
downstream consumers (reporting, resident notifications) can react
without coupling to the API.

Publishing is strictly best-effort: a broker outage degrades to a log
line and never fails the request that produced the event. When no AMQP
URL is configured the publisher is a no-op.
*/
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gestaocondominio/portaria/internal/authorization"
)

// QueueName is the durable queue authorization events are published to.
const QueueName = "portaria.authorization.events"

// publishTimeout bounds a single publish attempt so a wedged broker
// cannot stall the detached notify path.
const publishTimeout = 5 * time.Second

// Envelope is the wire shape of one published event.
type Envelope struct {
	Event           string    `json:"event"`
	AuthorizationID string    `json:"authorization_id"`
	CondominiumID   string    `json:"condominium_id"`
	VisitorName     string    `json:"visitor_name"`
	UnitCode        string    `json:"unit_code"`
	Actor           string    `json:"actor"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher sends authorization events to RabbitMQ. It satisfies
// [authorization.EventPublisher].
//
// The connection is dialed lazily on first publish and re-dialed after
// failures. All methods are safe for concurrent use.
type Publisher struct {
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher constructs a [Publisher]. An empty url disables
// publishing entirely.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Enabled reports whether a broker URL is configured.
func (publisher *Publisher) Enabled() bool {
	return publisher.url != ""
}

// Publish emits one event envelope for the given authorization. Errors
// are logged, never returned: event delivery must not break check-ins
// at the gate.
func (publisher *Publisher) Publish(ctx context.Context, eventKind string, auth *authorization.Authorization, actor string) {
	if !publisher.Enabled() {
		return
	}

	envelope := Envelope{
		Event:           eventKind,
		AuthorizationID: auth.ID,
		CondominiumID:   auth.CondominiumID,
		VisitorName:     auth.VisitorName,
		UnitCode:        auth.Authorizer.UnitCode,
		Actor:           actor,
		OccurredAt:      time.Now().UTC(),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		publisher.logger.Error("event_marshal_failed",
			slog.String("event", eventKind),
			slog.String("authorization_id", auth.ID),
			slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := publisher.send(ctx, body); err != nil {
		publisher.logger.Error("event_publish_failed",
			slog.String("event", eventKind),
			slog.String("authorization_id", auth.ID),
			slog.String("queue", QueueName),
			slog.String("error", err.Error()))
		return
	}

	publisher.logger.Debug("event_published",
		slog.String("event", eventKind),
		slog.String("authorization_id", auth.ID))
}

// send publishes one persistent message, re-dialing once if the cached
// channel went stale since the last publish.
func (publisher *Publisher) send(ctx context.Context, body []byte) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	message := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if publisher.channel != nil {
		err := publisher.channel.PublishWithContext(ctx, "", QueueName, false, false, message)
		if err == nil {
			return nil
		}
		publisher.closeLocked()
	}

	if err := publisher.connectLocked(); err != nil {
		return err
	}
	return publisher.channel.PublishWithContext(ctx, "", QueueName, false, false, message)
}

// connectLocked dials the broker and declares the durable queue.
// Callers must hold publisher.mu.
func (publisher *Publisher) connectLocked() error {
	conn, err := amqp.Dial(publisher.url)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if _, err := channel.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return err
	}

	publisher.conn = conn
	publisher.channel = channel
	return nil
}

// closeLocked drops the cached connection. Callers must hold
// publisher.mu.
func (publisher *Publisher) closeLocked() {
	if publisher.channel != nil {
		_ = publisher.channel.Close()
		publisher.channel = nil
	}
	if publisher.conn != nil {
		_ = publisher.conn.Close()
		publisher.conn = nil
	}
}

// Close releases the broker connection. Safe to call on a disabled or
// never-connected publisher.
func (publisher *Publisher) Close() {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.closeLocked()
}
