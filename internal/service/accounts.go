package service

import (
	"context"
	"errors"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/auth"
	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AccountService struct {
	admins AdminStore
	tokens *auth.TokenIssuer
}

func NewAccountService(admins AdminStore, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{admins: admins, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, creds models.Credentials) error {
	if _, err := s.admins.GetAdminByUsername(ctx, creds.Username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return err
	}

	admin := &models.Admin{
		ID:           uuid.New().String(),
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.admins.InsertAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return err
	}

	log.Info().Str("username", admin.Username).Msg("Admin registered")
	return nil
}

// Login verifies credentials and issues a bearer token
func (s *AccountService) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	admin, err := s.admins.GetAdminByUsername(ctx, creds.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(admin.PasswordHash, creds.Password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(admin.Username)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{Token: token, Username: admin.Username}, nil
}
