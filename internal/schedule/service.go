package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

// Service stores templates and keeps their trip instances in step.  Every
// create or edit is followed by a synchronous expansion.
type Service struct {
	store    Store
	expander *Expander
	now      func() time.Time
}

// NewService returns a Service using store and expander.
func NewService(store Store, expander *Expander) *Service {
	return &Service{store: store, expander: expander, now: expander.now}
}

// TemplateResult is a stored template together with the outcome of the
// expansion that followed the write.
type TemplateResult struct {
	Template  *model.WeeklyTripTemplate `json:"template"`
	Expansion *ExpandResult `json:"expansion"`
}

// CreateTemplate validates and stores a new template, then expands it.  The
// template is kept even when the expansion fails; the error is returned
// alongside the result so the caller can trigger a new expansion.
func (s *Service) CreateTemplate(ctx context.Context, in TemplateInput) (*TemplateResult, error) {
	t, err := NewTemplate(in, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetAgency(ctx, t.AgencyID); err != nil {
		return nil, fmt.Errorf("agency %s: %w", t.AgencyID, err)
	}
	if err := s.store.CreateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	res, err := s.expander.Expand(ctx, t.ID)
	return &TemplateResult{Template: t, Expansion: res}, err
}

// UpdateTemplate applies an edit to a stored template and re-expands it.
func (s *Service) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (*TemplateResult, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", id, err)
	}
	if err := ApplyEdit(t, in); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("update template %s: %w", id, err)
	}
	res, err := s.expander.Expand(ctx, t.ID)
	return &TemplateResult{Template: t, Expansion: res}, err
}

// Expand re-runs the expansion of a stored template.
func (s *Service) Expand(ctx context.Context, id string) (*ExpandResult, error) {
	return s.expander.Expand(ctx, id)
}
