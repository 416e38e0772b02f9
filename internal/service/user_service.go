package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/repository"
	"github.com/weiawesome/duochat/pkg/log"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID, username, email string) (string, time.Time, error)
}

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo   repository.UserRepository
	tokens TokenIssuer
	avatar *AvatarProcessor
	cost   int
}

// NewUserService creates a new user service. avatar may be nil, in which
// case profile updates with an avatar are rejected.
func NewUserService(repo repository.UserRepository, tokens TokenIssuer, avatar *AvatarProcessor) UserService {
	return &userServiceImpl{
		repo:   repo,
		tokens: tokens,
		avatar: avatar,
		cost:   bcrypt.DefaultCost,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, errors.Join(domain.ErrInvalidArgument, errors.New("username, email and password are required"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, errors.Join(domain.ErrInternal, err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.Username, user.ID, "user registered")

	resp := user.ToResponse()
	return &resp, nil
}

// Login authenticates a user by email and password.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	l := log.Ctx(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", "", email, "login failed: user not found")
			return nil, domain.ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.Username, user.ID, email, "login failed: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUsername, user.Username).Msg("failed to sign token")
		return nil, errors.Join(domain.ErrInternal, err)
	}

	audit.Log(ctx, audit.ActionLogin, user.Username, user.ID, "user logged in")

	return &domain.LoginResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: exp.Unix(),
	}, nil
}

// ListUsers returns every registered username.
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserSummary, len(users))
	for i, u := range users {
		out[i] = domain.UserSummary{Username: u.Username}
	}
	return out, nil
}

func (s *userServiceImpl) Exists(ctx context.Context, username string) (bool, error) {
	return s.repo.Exists(ctx, username)
}

func (s *userServiceImpl) GetProfile(ctx context.Context, username string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile applies bio and avatar changes. A replaced avatar object is
// removed after the new one is saved.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, username string, update *domain.ProfileUpdate) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}

	var oldKey string
	if update.Avatar != nil {
		if s.avatar == nil {
			return nil, errors.Join(domain.ErrInvalidArgument, errors.New("avatar uploads are disabled"))
		}
		key, url, err := s.avatar.Process(ctx, username, update.Avatar)
		if err != nil {
			return nil, err
		}
		oldKey = user.AvatarKey
		user.AvatarKey = key
		user.AvatarURL = url
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if update.Avatar != nil {
			s.avatar.Discard(ctx, user.AvatarKey)
		}
		return nil, err
	}

	if oldKey != "" {
		s.avatar.Discard(ctx, oldKey)
	}

	audit.Log(ctx, audit.ActionUpdateProfile, username, user.ID, "profile updated")
	l.Debug().Str(log.FieldUsername, username).Bool("avatar", update.Avatar != nil).Msg("profile updated")

	resp := user.ToResponse()
	return &resp, nil
}
