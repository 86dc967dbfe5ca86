package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"businessconnect_backend/internal/logger"
)

const (
	SubjectUserRegistered         = "user.registered"
	SubjectJobCreated             = "job.created"
	SubjectJobApplicationCreated  = "job.application.created"
	SubjectMarketplaceItemCreated = "marketplace.item.created"
	SubjectMarketplaceModerated   = "marketplace.item.moderated"
	SubjectSubscriptionActivated  = "subscription.activated"
	SubjectSubscriptionExpired    = "subscription.expired"
	SubjectForumTopicCreated      = "forum.topic.created"
)

const (
	connectWait   = 5 * time.Second
	maxReconnects = -1
	reconnectWait = 2 * time.Second
)

// Envelope wraps every published payload.
type Envelope struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurredAt"`
	RequestID  string      `json:"requestId,omitempty"`
	Data       interface{} `json:"data"`
}

// Publisher emits domain events. Publishing is best effort: callers log
// and continue when it fails.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("BusinessConnect API"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(Envelope{
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		RequestID:  logger.GetRequestID(ctx),
		Data:       data,
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

// Connected is used by the health check.
func (p *NATSPublisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains pending messages before closing.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NoopPublisher is used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.CtxDebug(ctx, "event dropped, no broker configured", "subject", subject)
	return nil
}

func (NoopPublisher) Close() {}

// Emit publishes and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, subject string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		logger.CtxWarn(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}
