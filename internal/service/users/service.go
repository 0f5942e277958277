// Package users handles account registration, login, guest accounts and
// guest upgrades.
package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/internal/app"
	"github.com/reelmates/reelmates/internal/db"
	svcErr "github.com/reelmates/reelmates/internal/errors"
	"github.com/reelmates/reelmates/internal/repository"
)

type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates a full account. Email addresses are unique.
func (s *Service) Register(ctx context.Context, username, email, password string) (*db.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || len(password) < 8 {
		return nil, svcErr.Validation("username, email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &db.User{
		Username:     username,
		Email:        &email,
		PasswordHash: &hashStr,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "user", user.ID)
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.ErrUnauthorized
		}
		return nil, svcErr.Map(err)
	}
	if user.PasswordHash == nil {
		return nil, svcErr.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, svcErr.ErrUnauthorized
	}

	return user, nil
}

// Guest creates a credential-less account so a partner can join a room
// without registering first.
func (s *Service) Guest(ctx context.Context, username string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, svcErr.Validation("username is required")
	}

	user := &db.User{Username: username, Guest: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, svcErr.Map(err)
	}
	return user, nil
}

// Upgrade converts a guest into a full account. Everything the guest
// accumulated (rooms, swipes, matches, favorites) stays attached.
func (s *Service) Upgrade(ctx context.Context, userID uint64, email, password string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, svcErr.Validation("email and a password of at least 8 characters are required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !user.Guest {
		return nil, svcErr.Validation("account is not a guest")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user.Email = &email
	user.PasswordHash = &hashStr
	user.Guest = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("guest upgraded", "user", user.ID)
	return user, nil
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, userID uint64) (*db.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return user, nil
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, username string) (*db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, svcErr.Validation("username is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	user.Username = username
	if err := s.users.Update(ctx, user); err != nil {
		return nil, svcErr.Map(err)
	}
	return user, nil
}
