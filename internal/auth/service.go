package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/internal/users"
	pkgauth "github.com/mateovilla/clickshop-backend/pkg/auth"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
	"github.com/mateovilla/clickshop-backend/pkg/metrics"
	"github.com/mateovilla/clickshop-backend/pkg/oauth"
	"gorm.io/gorm"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*users.UserDTO, error)
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type identityResolver interface {
	ResolveOAuth(ctx context.Context, profile *oauth.Profile) (*models.User, error)
	AuthenticateLocal(ctx context.Context, email, password string) (*models.User, error)
}

type googleExchanger interface {
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

type tokenManager interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose) (string, *models.VerificationToken, error)
	Redeem(ctx context.Context, userID uuid.UUID, purpose enums.TokenPurpose, rawToken string) (*models.VerificationToken, error)
}

type emailNotifier interface {
	SendVerificationEmail(ctx context.Context, email, rawToken, name string) error
	SendPasswordResetEmail(ctx context.Context, email, rawToken, name string) error
	SendPasswordChangedEmail(ctx context.Context, email, name string) error
}

type service struct {
	conn        *gorm.DB
	resolver    identityResolver
	google      googleExchanger
	tokens      tokenManager
	notifier    emailNotifier
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	metrics     *metrics.AuthMetrics
	log         *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
// Google may be nil when the provider is not configured; GoogleLogin then
// reports the feature as unavailable.
type ServiceParams struct {
	Conn           *gorm.DB
	Resolver       identityResolver
	Google         googleExchanger
	TokenManager   tokenManager
	Notifier       emailNotifier
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("identity resolver is required")
	}
	if params.TokenManager == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		conn:        params.Conn,
		resolver:    params.Resolver,
		google:      params.Google,
		tokens:      params.TokenManager,
		notifier:    params.Notifier,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		metrics:     params.Metrics,
		log:         params.Logger,
		now:         now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.resolver.AuthenticateLocal(ctx, req.Email, req.Password)
	if err != nil {
		s.metrics.ObserveLogin(enums.ProviderEmail.String(), "failure")
		return nil, err
	}
	resp, err := s.sessionResponse(user)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLogin(enums.ProviderEmail.String(), "success")
	return resp, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	user, err := users.NewRepository(s.conn).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

// sessionResponse mints the stateless access token for an authenticated user.
func (s *service) sessionResponse(user *models.User) (*AuthResponse, error) {
	role := enums.RoleCustomer
	var employeeType *enums.EmployeeType
	if user.Profile != nil {
		role = user.Profile.Role
		employeeType = user.Profile.EmployeeType
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         role,
		EmployeeType: employeeType,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}
