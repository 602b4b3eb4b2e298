package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes verification-token persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a tokens repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Replace supersedes any open token for the (user, purpose) pair with a fresh
// row carrying the provided hash and expiry.
func (r *Repository) Replace(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose, tokenHash string, expiresAt time.Time) (*models.VerificationToken, error) {
	token := &models.VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND purpose = ?", userID, purpose).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Find loads the current token row for the (user, purpose) pair.
func (r *Repository) Find(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose) (*models.VerificationToken, error) {
	var token models.VerificationToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Consume marks the token consumed if and only if it has not been consumed
// yet. The consumed_at guard in the WHERE clause makes redemption at-most-once
// under concurrent attempts; the boolean reports whether this caller won.
func (r *Repository) Consume(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VerificationToken{}).
		Where("id = ? AND consumed_at IS NULL", id).
		UpdateColumn("consumed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordFailure increments the attempt counter and, when the incremented count
// reaches maxAttempts, sets locked_until — all in a single UPDATE so that
// concurrent failed redemptions cannot lose increments.
func (r *Repository) RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.VerificationToken{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"attempts":     gorm.Expr("attempts + 1"),
			"locked_until": gorm.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE locked_until END", maxAttempts, lockedUntil),
		}).Error
}

// DeleteExpired removes rows whose expiry has passed. Used by the cleanup job.
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.VerificationToken{})
	return res.RowsAffected, res.Error
}
