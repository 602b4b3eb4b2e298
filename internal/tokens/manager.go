package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/metrics"
	"github.com/mateovilla/clickshop-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidTokenMessage = "invalid or expired token"

type tokenStore interface {
	Replace(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose, tokenHash string, expiresAt time.Time) (*models.VerificationToken, error)
	Find(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose) (*models.VerificationToken, error)
	Consume(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) error
}

// Manager issues and redeems single-use verification and password-reset
// tokens. Only token hashes cross its boundary into storage; the raw value
// exists in memory just long enough to hand to the notifier.
type Manager struct {
	store   tokenStore
	cfg     config.TokenConfig
	metrics *metrics.AuthMetrics
	now     func() time.Time
}

// ManagerParams bundles the dependencies required to build a token manager.
type ManagerParams struct {
	Store   tokenStore
	Config  config.TokenConfig
	Metrics *metrics.AuthMetrics
	Now     func() time.Time
}

// NewManager constructs a token manager with the provided dependencies.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Manager{
		store:   params.Store,
		cfg:     params.Config,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// Issue mints a fresh raw token for the (user, purpose) pair, persists its
// hash, and supersedes any token previously issued for the same pair. The raw
// value is returned exactly once and is never stored.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose) (string, *models.VerificationToken, error) {
	if !purpose.IsValid() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown token purpose")
	}

	raw, err := security.GenerateRawToken()
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate token")
	}

	expiresAt := m.now().Add(m.cfg.TTL())
	token, err := m.store.Replace(ctx, userID, purpose, security.HashToken(raw), expiresAt)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist token")
	}
	return raw, token, nil
}

// Redeem validates the candidate raw token against the stored hash and
// consumes the row on success. Order matters: the lock check runs before any
// hash work, expiry before comparison, and consumption is a guarded single
// UPDATE so two concurrent redeemers cannot both succeed. A failed comparison
// counts against the attempt budget.
func (m *Manager) Redeem(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose, rawToken string) (*models.VerificationToken, error) {
	token, err := m.store.Find(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m.metrics.ObserveRedemption(purpose.String(), "invalid")
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load token")
	}

	now := m.now()
	status := CheckRateLimit(token.Attempts, token.LockedUntil, m.cfg.MaxAttempts, m.cfg.Lockout(), now)
	if status.IsLocked {
		m.metrics.ObserveRedemption(purpose.String(), "locked")
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit,
			fmt.Sprintf("too many attempts, try again in %d minutes", status.MinutesRemaining))
	}

	if token.ConsumedAt != nil {
		m.metrics.ObserveRedemption(purpose.String(), "consumed")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	if now.After(token.ExpiresAt) {
		m.metrics.ObserveRedemption(purpose.String(), "expired")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}

	if !security.VerifyTokenHash(rawToken, token.TokenHash) {
		if err := m.store.RecordFailure(ctx, token.ID, m.cfg.MaxAttempts, now.Add(m.cfg.Lockout())); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record failed attempt")
		}
		m.metrics.ObserveRedemption(purpose.String(), "mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}

	won, err := m.store.Consume(ctx, token.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume token")
	}
	if !won {
		// Another redeemer consumed the row between our read and write.
		m.metrics.ObserveRedemption(purpose.String(), "consumed")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}

	m.metrics.ObserveRedemption(purpose.String(), "success")
	token.ConsumedAt = &now
	return token, nil
}
