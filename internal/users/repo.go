package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user together with their profile in one transaction
// and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Profile != nil && user.Profile.ID == uuid.Nil {
		user.Profile.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email, profile included.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID, profile included.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkEmailVerified flips the verification flag and records when it happened.
func (r *Repository) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"email_verified": true,
			"verified_at":    at,
		}).Error
}

// UpdateImage overwrites the user's avatar URL.
func (r *Repository) UpdateImage(ctx context.Context, id uuid.UUID, image string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("image", image).Error
}

// FindProfileByUserID loads the profile row for a user.
func (r *Repository) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile writes the contact fields of a user's profile, creating the
// row when registration predates profile capture. Role is not touched here;
// UpdateRole owns that column.
func (r *Repository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"phone", "address_line1", "address_line2",
				"city", "region", "postal_code", "country",
			}),
		}).
		Create(profile).Error
}

// UpdateRole changes the role stored on the user's profile.
func (r *Repository) UpdateRole(ctx context.Context, userID uuid.UUID, role enums.Role, employeeType *enums.EmployeeType) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]any{
			"role":          role,
			"employee_type": employeeType,
		}).Error
}
