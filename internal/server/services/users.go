package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/cryptox"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/auth"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/repomanager"
)

// UserService provides account operations:
// - Register: create accounts or claim a record made by key generation
// - Login: verify credentials and mint an access token
// - VerifyPassword / ChangePassword
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	// dummyHash stands in for the stored hash of unknown accounts.
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		logger:                      logger.With("module", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		dummyHash:                   cryptox.HashPassword(string(common.GenerateRandByteArray(16))),
	}
}

// Register creates an account. A record created earlier by key generation
// (no password yet) is claimed instead. ErrorAlreadyExists when the email
// is registered already.
func (s *UserService) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrInvalidInput)
	}

	hash := cryptox.HashPassword(password)
	repo := s.repomanager.Users(s.db)

	err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if errors.Is(err, common.ErrorAlreadyExists) {
		err = repo.ClaimAccount(ctx, email, hash)
	}
	if err != nil {
		return classify(err)
	}

	s.logger.Info(ctx, "user registered", "email", email)
	return nil
}

// Login verifies the password and returns a signed access token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	if err := s.VerifyPassword(ctx, email, password); err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// VerifyPassword returns ErrorUnauthorized unless password matches the
// stored hash of a registered account.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return classify(err)
	}

	encoded := s.dummyHash
	if err == nil && user.HasPassword() {
		encoded = user.PasswordHash
	}

	ok, checkErr := cryptox.CheckPassword(encoded, password)
	if checkErr != nil {
		s.logger.Error(ctx, "stored password hash is malformed", "email", email, "error", checkErr)
		return common.ErrorUnauthorized
	}
	if err != nil || !user.HasPassword() || !ok {
		return common.ErrorUnauthorized
	}
	return nil
}

// ChangePassword replaces the password hash of email.
func (s *UserService) ChangePassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return fmt.Errorf("%w: email and new password are required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdatePassword(ctx, email, cryptox.HashPassword(newPassword)); err != nil {
		return classify(err)
	}

	s.logger.Info(ctx, "password changed", "email", email)
	return nil
}
