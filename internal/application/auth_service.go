package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	repo "github.com/oksasatya/project-feed/internal/domain/repository"
	"github.com/oksasatya/project-feed/pkg/helpers"
	"github.com/oksasatya/project-feed/pkg/validation"
)

const sessionTTL = 24 * time.Hour

type AuthService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:  users,
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Name     string `json:"name" validate:"required,trimmin=1"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Signup creates a user with a bcrypt-hashed password.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	helpers.LogInfo(s.Logger, "user signed up", logrus.Fields{"user_id": u.ID})
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, apperror.ErrInvalidCredential
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, apperror.ErrInvalidCredential
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.sign(u.ID, sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate tokens failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResponse, TokenPair, error) {
	if err := validateStruct(in); err != nil {
		return nil, TokenPair{}, err
	}
	u, err := s.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name}, pair, nil
}

// Refresh rotates the session id and both tokens. The refresh token must
// belong to the current session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", apperror.ErrInvalidCredential
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", apperror.ErrInvalidCredential
	}

	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, helpers.SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", apperror.ErrInvalidCredential
		}
	}

	sid := uuid.NewString()
	pair, err := s.sign(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		_, _ = pipe.Exec(ctx)
	}
	return pair, u.ID, nil
}

// Logout drops the session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, helpers.SessionKey(userID)).Err()
}

func (s *AuthService) sign(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func validateStruct(in any) error {
	err := validation.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.NewValidationError(validation.ToDetails(err))
	}
	return err
}
