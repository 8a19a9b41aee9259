package service

import (
	"context"
	"fmt"
	"strings"

	"indico/internal/auth"
	"indico/internal/domain"
	"indico/internal/models"
	"indico/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CondominiumInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	Address      string `json:"address" validate:"max=255"`
	Number       string `json:"number" validate:"max=20"`
	Complement   string `json:"complement" validate:"max=100"`
	Neighborhood string `json:"neighborhood" validate:"max=100"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"max=50"`
	ZipCode      string `json:"zip_code" validate:"max=20"`
}

func (in CondominiumInput) fields() map[string]any {
	return map[string]any{
		"name":         in.Name,
		"address":      in.Address,
		"number":       in.Number,
		"complement":   in.Complement,
		"neighborhood": in.Neighborhood,
		"city":         in.City,
		"state":        in.State,
		"zip_code":     in.ZipCode,
	}
}

// PolicyInput carries money as decimal strings so clients never round through floats.
type PolicyInput struct {
	PolicyNumber   string `json:"policy_number" validate:"required,max=100"`
	Carrier        string `json:"carrier" validate:"max=255"`
	CoverageType   string `json:"coverage_type" validate:"max=100"`
	CoverageAmount string `json:"coverage_amount"`
	Premium        string `json:"premium"`
	StartDate      int64  `json:"start_date" validate:"required"`
	EndDate        int64  `json:"end_date" validate:"required"`
	Status         string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type parsedPolicy struct {
	coverage decimal.Decimal
	premium  decimal.Decimal
	status   string
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, domain.Invalid(field, "must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, domain.Invalid(field, "must not be negative")
	}
	return d.Round(2), nil
}

func (in PolicyInput) parse() (parsedPolicy, error) {
	if err := validateStruct(in); err != nil {
		return parsedPolicy{}, err
	}
	if in.EndDate < in.StartDate {
		return parsedPolicy{}, domain.Invalid("end_date", "must not be before start_date")
	}
	coverage, err := parseAmount("coverage_amount", in.CoverageAmount)
	if err != nil {
		return parsedPolicy{}, err
	}
	premium, err := parseAmount("premium", in.Premium)
	if err != nil {
		return parsedPolicy{}, err
	}
	status := in.Status
	if status == "" {
		status = domain.PolicyStatusActive
	}
	return parsedPolicy{coverage: coverage, premium: premium, status: status}, nil
}

// PolicyService is the owner-scoped CRUD over condominiums and policies.
type PolicyService struct {
	repo *repository.PolicyRepository
}

func NewPolicyService(repo *repository.PolicyRepository) *PolicyService {
	return &PolicyService{repo: repo}
}

func (s *PolicyService) ownedCondominium(ctx context.Context, who auth.Identity, id string) (*models.Condominium, error) {
	c, err := s.repo.GetCondominium(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != who.UserID && !who.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func (s *PolicyService) ownedPolicy(ctx context.Context, who auth.Identity, id string) (*models.Policy, error) {
	p, err := s.repo.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCondominium(ctx, who, p.CondominiumID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PolicyService) ListCondominiums(ctx context.Context, who auth.Identity) ([]models.Condominium, error) {
	return s.repo.CondominiumsOf(ctx, who.UserID)
}

func (s *PolicyService) CreateCondominium(ctx context.Context, who auth.Identity, in CondominiumInput) (*models.Condominium, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	c := &models.Condominium{
		ID:           id.String(),
		UserID:       who.UserID,
		Name:         in.Name,
		Address:      in.Address,
		Number:       in.Number,
		Complement:   in.Complement,
		Neighborhood: in.Neighborhood,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
	}
	if err := s.repo.CreateCondominium(ctx, c); err != nil {
		return nil, fmt.Errorf("create condominium: %w", err)
	}
	return c, nil
}

func (s *PolicyService) UpdateCondominium(ctx context.Context, who auth.Identity, id string, in CondominiumInput) (*models.Condominium, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.ownedCondominium(ctx, who, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCondominium(ctx, id, in.fields()); err != nil {
		return nil, err
	}
	return s.repo.GetCondominium(ctx, id)
}

func (s *PolicyService) DeleteCondominium(ctx context.Context, who auth.Identity, id string) error {
	if _, err := s.ownedCondominium(ctx, who, id); err != nil {
		return err
	}
	return s.repo.DeleteCondominium(ctx, id)
}

func (s *PolicyService) ListPolicies(ctx context.Context, who auth.Identity, condominiumID string) ([]models.Policy, error) {
	if _, err := s.ownedCondominium(ctx, who, condominiumID); err != nil {
		return nil, err
	}
	return s.repo.PoliciesOf(ctx, condominiumID)
}

func (s *PolicyService) CreatePolicy(ctx context.Context, who auth.Identity, condominiumID string, in PolicyInput) (*models.Policy, error) {
	parsed, err := in.parse()
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCondominium(ctx, who, condominiumID); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	p := &models.Policy{
		ID:             id.String(),
		CondominiumID:  condominiumID,
		PolicyNumber:   strings.TrimSpace(in.PolicyNumber),
		Carrier:        in.Carrier,
		CoverageType:   in.CoverageType,
		CoverageAmount: parsed.coverage,
		Premium:        parsed.premium,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         parsed.status,
	}
	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return p, nil
}

func (s *PolicyService) UpdatePolicy(ctx context.Context, who auth.Identity, id string, in PolicyInput) (*models.Policy, error) {
	parsed, err := in.parse()
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPolicy(ctx, who, id); err != nil {
		return nil, err
	}
	err = s.repo.UpdatePolicy(ctx, id, map[string]any{
		"policy_number":   strings.TrimSpace(in.PolicyNumber),
		"carrier":         in.Carrier,
		"coverage_type":   in.CoverageType,
		"coverage_amount": parsed.coverage,
		"premium":         parsed.premium,
		"start_date":      in.StartDate,
		"end_date":        in.EndDate,
		"status":          parsed.status,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPolicy(ctx, id)
}

func (s *PolicyService) DeletePolicy(ctx context.Context, who auth.Identity, id string) error {
	if _, err := s.ownedPolicy(ctx, who, id); err != nil {
		return err
	}
	return s.repo.DeletePolicy(ctx, id)
}
