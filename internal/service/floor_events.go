package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

// DefaultSubject is the prefix floor events are published under. The alert
// type is the last subject token, e.g. floor.events.order-ready.
const DefaultSubject = "floor.events"

// Notifier receives push-path notifications
type Notifier interface {
	CreateNotification(p model.Payload) string
}

// FloorEventBridge turns business events published on NATS into push-path
// notifications
type FloorEventBridge struct {
	nc       *nats.Conn
	subject  string
	notifier Notifier
	logger   *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewFloorEventBridge creates a bridge listening under subject
func NewFloorEventBridge(nc *nats.Conn, subject string, notifier Notifier, logger *zap.Logger) *FloorEventBridge {
	if subject == "" {
		subject = DefaultSubject
	}
	return &FloorEventBridge{
		nc:       nc,
		subject:  strings.TrimSuffix(subject, "."),
		notifier: notifier,
		logger:   logger.Named("floor-events"),
	}
}

// Start subscribes to every event type under the bridge subject. The
// subscription is dropped when ctx is done.
func (b *FloorEventBridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return nil
	}

	sub, err := b.nc.Subscribe(b.subject+".>", b.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to floor events: %w", err)
	}
	b.sub = sub

	b.logger.Info("Listening for floor events", zap.String("subject", sub.Subject))

	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	return nil
}

// Stop drops the subscription
func (b *FloorEventBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub == nil {
		return
	}
	if err := b.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
		b.logger.Warn("Failed to unsubscribe from floor events", zap.Error(err))
	}
	b.sub = nil
}

func (b *FloorEventBridge) handle(msg *nats.Msg) {
	alertType := alertTypeFromSubject(msg.Subject)

	p, err := model.DecodePayload(alertType, msg.Data)
	if err != nil {
		b.logger.Error("Failed to decode floor event",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}

	id := b.notifier.CreateNotification(p)

	b.logger.Debug("Floor event received",
		zap.String("type", string(alertType)),
		zap.String("alert_id", id))

	if msg.Reply != "" {
		if err := msg.Respond([]byte(id)); err != nil {
			b.logger.Warn("Failed to reply to floor event", zap.Error(err))
		}
	}
}

// PublishFloorEvent publishes p under subject so a bridge picks it up
func PublishFloorEvent(nc *nats.Conn, subject string, p model.Payload) error {
	var body any = p
	if g, ok := p.(model.Generic); ok {
		body = g.Fields
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal floor event: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if err := nc.Publish(strings.TrimSuffix(subject, ".")+"."+string(p.Type()), data); err != nil {
		return fmt.Errorf("failed to publish floor event: %w", err)
	}
	return nil
}

func alertTypeFromSubject(subject string) model.AlertType {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return model.AlertType(subject[i+1:])
	}
	return model.AlertType(subject)
}
