// Package user provides business logic for account holders.
package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/repository"
)

// Service provides business logic for user operations.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		logger: logger,
	}
}

// CreateUser registers a new account holder.
func (s *Service) CreateUser(ctx context.Context, name string) (*dto.UserView, error) {
	u, err := user.NewUser(name)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, u)
	})
	if err != nil {
		s.logger.Error("CreateUser failed", "name", name, "error", err)
		return nil, domain.AsError(err)
	}
	s.logger.Info("CreateUser successful", "userID", u.ID)
	return toView(u), nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID int64) (*dto.UserView, error) {
	var u *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.Get(ctx, userID)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.UserNotFound)
	}
	if err != nil {
		return nil, domain.AsError(err)
	}
	return toView(u), nil
}

func toView(u *user.User) *dto.UserView {
	return &dto.UserView{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}
