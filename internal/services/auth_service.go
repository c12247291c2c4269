package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
)

const accessTokenTTL = 30 * time.Minute

type AuthService struct {
	db  *postgres.Client
	cfg *config.Config
}

func NewAuthService(db *postgres.Client, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Fullname: req.Fullname,
		Email:    req.Email,
		Login:    req.Login,
		Password: string(hash),
	}
	if _, err := s.db.CreateUser(ctx, user); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: login or email already taken", ErrInvalidArgument)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResponse, error) {
	user, err := s.db.GetUserByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, fmt.Errorf("%w: wrong login or password", ErrForbidden)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: wrong login or password", ErrForbidden)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	user, err := s.db.GetUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", ErrForbidden)
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.Itoa(user.ID),
		"is_admin": user.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: models.UserResponse{
			ID:       user.ID,
			Fullname: user.Fullname,
			Email:    user.Email,
			Login:    user.Login,
			IsAdmin:  user.IsAdmin,
		},
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
