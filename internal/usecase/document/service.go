package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domdoc "github.com/kailas-cloud/pdfsearch/internal/domain/document"
)

// Service inspects and removes stored documents by identity.
type Service struct {
	repo Repository
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the document stored under id. The vector is dropped.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	if err := validateID(id); err != nil {
		return domdoc.Document{}, err
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.Vector = nil
	return doc, nil
}

// Delete removes the document stored under id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func validateID(id string) error {
	if _, _, ok := domdoc.ParseIdentity(id); !ok {
		return fmt.Errorf("%w: malformed document id %q", domain.ErrInvalidRequest, id)
	}
	return nil
}
