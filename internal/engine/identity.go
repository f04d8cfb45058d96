package engine

import (
	"context"

	"groundswell/internal/actor"
	"groundswell/internal/domain"
)

// Identity records are owned by an external module; these registration
// helpers exist so local workspaces and tests can seed the rows the core
// joins against. No attestations are emitted for identity changes.

func (e Engine) RegisterIndividual(ctx context.Context, name, walletAddress string) (domain.Individual, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Individual{}, err
	}
	if name == "" {
		return domain.Individual{}, ValidationError{Field: "name", Msg: "name is required"}
	}
	if walletAddress != "" && !actor.ValidAddress(walletAddress) {
		return domain.Individual{}, ValidationError{Field: "wallet_address", Msg: "malformed wallet address"}
	}
	ind := domain.Individual{
		Name:          name,
		WalletAddress: walletAddress,
		CreatedAt:     e.now().Unix(),
	}
	id, err := e.Repo.InsertIndividual(ctx, ind)
	if err != nil {
		return domain.Individual{}, err
	}
	ind.ID = id
	return ind, nil
}

func (e Engine) RegisterOrganization(ctx context.Context, name string) (domain.Organization, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Organization{}, err
	}
	if name == "" {
		return domain.Organization{}, ValidationError{Field: "name", Msg: "name is required"}
	}
	org := domain.Organization{Name: name, CreatedAt: e.now().Unix()}
	id, err := e.Repo.InsertOrganization(ctx, org)
	if err != nil {
		return domain.Organization{}, err
	}
	org.ID = id
	return org, nil
}

func (e Engine) AddOrganizationMember(ctx context.Context, orgID, individualID int64, role string) error {
	if err := e.ensureSchema(ctx); err != nil {
		return err
	}
	if orgID <= 0 {
		return ValidationError{Field: "organization_id", Msg: "organization id required"}
	}
	if individualID <= 0 {
		return ValidationError{Field: "individual_id", Msg: "individual id required"}
	}
	return e.Repo.AddOrganizationMember(ctx, orgID, individualID, role, e.now().Unix())
}
