package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
)

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	published []*gcppubsub.Message
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.published = append(f.published, msg)
	return fakeResult{err: f.err}
}

func newTestNotifier(pub publisher) *Notifier {
	return &Notifier{
		pub:      pub,
		frontend: config.FrontendConfig{BaseURL: "https://shop.example.com"},
		log:      logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")}),
		now:      func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func decodeEvent(t *testing.T, msg *gcppubsub.Message) EmailEvent {
	t.Helper()

	var event EmailEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event
}

func TestNotifierPasswordResetEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := newTestNotifier(pub)

	raw := strings.Repeat("ab", 32)
	if err := n.SendPasswordResetEmail(context.Background(), "u@example.com", raw, "Ada"); err != nil {
		t.Fatalf("send reset email: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.published))
	}

	event := decodeEvent(t, pub.published[0])
	if event.Type != EmailEventPasswordReset {
		t.Fatalf("unexpected type %s", event.Type)
	}
	if event.To != "u@example.com" {
		t.Fatalf("unexpected recipient %s", event.To)
	}
	want := "https://shop.example.com/reset-password?token=" + raw
	if event.Link != want {
		t.Fatalf("unexpected link %s", event.Link)
	}
	if pub.published[0].Attributes["event_type"] != string(EmailEventPasswordReset) {
		t.Fatalf("unexpected attributes %v", pub.published[0].Attributes)
	}
}

func TestNotifierVerificationEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := newTestNotifier(pub)

	raw := strings.Repeat("cd", 32)
	if err := n.SendVerificationEmail(context.Background(), "v@example.com", raw, "Ada"); err != nil {
		t.Fatalf("send verification email: %v", err)
	}

	event := decodeEvent(t, pub.published[0])
	if event.Type != EmailEventVerification {
		t.Fatalf("unexpected type %s", event.Type)
	}
	if !strings.Contains(event.Link, "/verify-email?token=") {
		t.Fatalf("unexpected link %s", event.Link)
	}
}

func TestNotifierPasswordChangedEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := newTestNotifier(pub)

	if err := n.SendPasswordChangedEmail(context.Background(), "c@example.com", ""); err != nil {
		t.Fatalf("send changed email: %v", err)
	}

	event := decodeEvent(t, pub.published[0])
	if event.Type != EmailEventPasswordChanged {
		t.Fatalf("unexpected type %s", event.Type)
	}
	if event.Link != "" {
		t.Fatalf("changed notice should carry no link, got %s", event.Link)
	}
}

func TestNotifierPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := newTestNotifier(pub)

	err := n.SendPasswordResetEmail(context.Background(), "u@example.com", "raw", "Ada")
	if err == nil {
		t.Fatal("expected publish failure to propagate")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected code %s", pkgerrors.As(err).Code())
	}
}

func TestNotifierRejectsEmptyRecipient(t *testing.T) {
	pub := &fakePublisher{}
	n := newTestNotifier(pub)

	if err := n.SendPasswordChangedEmail(context.Background(), "", "Ada"); err == nil {
		t.Fatal("expected empty recipient to fail")
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected no message, got %d", len(pub.published))
	}
}
