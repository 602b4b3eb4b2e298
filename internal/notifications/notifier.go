// Package notifications publishes the email events the auth flows emit.
// Delivery itself happens in a downstream mailer worker; this package only
// hands typed events to Pub/Sub.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// EmailEventType names the kind of email the mailer should send.
type EmailEventType string

const (
	EmailEventVerification    EmailEventType = "email_verification"
	EmailEventPasswordReset   EmailEventType = "password_reset"
	EmailEventPasswordChanged EmailEventType = "password_changed"
)

// EmailEvent is the payload published for the mailer worker. Link carries the
// frontend URL embedding the raw token; the event is the only place the raw
// value travels besides the HTTP response to the issuing flow.
type EmailEvent struct {
	Type       EmailEventType `json:"type"`
	To         string         `json:"to"`
	Name       string         `json:"name,omitempty"`
	Link       string         `json:"link,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Notifier publishes auth email events to the email topic.
type Notifier struct {
	pub      publisher
	frontend config.FrontendConfig
	log      *logger.Logger
	now      func() time.Time
}

// NotifierParams bundles the dependencies required to build a notifier.
type NotifierParams struct {
	Publisher *gcppubsub.Publisher
	Frontend  config.FrontendConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewNotifier constructs a notifier with the provided dependencies.
func NewNotifier(params NotifierParams) (*Notifier, error) {
	if params.Publisher == nil {
		return nil, fmt.Errorf("email publisher is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Notifier{
		pub:      newGCPPublisher(params.Publisher),
		frontend: params.Frontend,
		log:      params.Logger,
		now:      now,
	}, nil
}

// SendVerificationEmail publishes the verify-address event carrying the raw
// token inside the frontend link.
func (n *Notifier) SendVerificationEmail(ctx context.Context, email, rawToken, name string) error {
	return n.publish(ctx, EmailEvent{
		Type: EmailEventVerification,
		To:   email,
		Name: name,
		Link: n.frontend.VerifyEmailURL(rawToken),
	})
}

// SendPasswordResetEmail publishes the reset event. Callers treat a failure
// here as fatal to the flow, since the user would otherwise wait for a mail
// that never arrives.
func (n *Notifier) SendPasswordResetEmail(ctx context.Context, email, rawToken, name string) error {
	return n.publish(ctx, EmailEvent{
		Type: EmailEventPasswordReset,
		To:   email,
		Name: name,
		Link: n.frontend.ResetPasswordURL(rawToken),
	})
}

// SendPasswordChangedEmail publishes the changed-notice event. This one is
// best-effort at the call sites.
func (n *Notifier) SendPasswordChangedEmail(ctx context.Context, email, name string) error {
	return n.publish(ctx, EmailEvent{
		Type: EmailEventPasswordChanged,
		To:   email,
		Name: name,
	})
}

func (n *Notifier) publish(ctx context.Context, event EmailEvent) error {
	if event.To == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}
	event.OccurredAt = n.now()

	data, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode email event")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := n.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":  string(event.Type),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "email publisher returned no result")
	}
	id, err := result.Get(publishCtx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish email event")
	}

	// The link never reaches the log, only the event type and message id.
	n.log.Debug(n.log.WithFields(ctx, map[string]any{
		"event_type": string(event.Type),
		"message_id": id,
	}), "email event published")
	return nil
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
