package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

// ReferenceService serves the read-only master-data listings.
type ReferenceService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(store repository.Store, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{store: store, logger: logger}
}

func (s *ReferenceService) Users(ctx context.Context) ([]domain.Reference, error) {
	return nonNil(s.store.References().ListUsers(ctx))
}

func (s *ReferenceService) Accounts(ctx context.Context) ([]domain.Reference, error) {
	return nonNil(s.store.References().ListAccounts(ctx))
}

func (s *ReferenceService) Categories(ctx context.Context) ([]domain.Reference, error) {
	return nonNil(s.store.References().ListCategories(ctx))
}

func (s *ReferenceService) Statuses(ctx context.Context) ([]domain.Reference, error) {
	return nonNil(s.store.References().ListStatuses(ctx))
}

func (s *ReferenceService) RequestChannels(ctx context.Context) ([]domain.Reference, error) {
	return nonNil(s.store.References().ListRequestChannels(ctx))
}

// CategoryDetails returns detail rows, optionally scoped to one category.
func (s *ReferenceService) CategoryDetails(ctx context.Context, categoryID *string) ([]domain.CategoryDetail, error) {
	details, err := s.store.References().ListCategoryDetails(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []domain.CategoryDetail{}
	}
	return details, nil
}

func (s *ReferenceService) ResponseCategories(ctx context.Context) ([]domain.ResponseCategory, error) {
	cats, err := s.store.References().ListResponseCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.ResponseCategory{}
	}
	return cats, nil
}

func nonNil(refs []domain.Reference, err error) ([]domain.Reference, error) {
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []domain.Reference{}
	}
	return refs, nil
}
