// Package actor maps loosely-typed acting-party identifiers onto internal
// identity rows. Resolution fails closed: a malformed or unknown address is
// "no actor", never an error, so callers decide whether that is fatal.
package actor

import (
	"context"
	"errors"
	"regexp"

	"groundswell/internal/repo"
)

// addressPattern is the strict form of a 20-byte hex address.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type Resolver struct {
	Repo repo.Repo
}

// ValidAddress reports whether addr is a well-formed wallet address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// IndividualIDByAddress resolves a wallet address to an individual id,
// matching case-insensitively. Returns (0, false) when the address is
// malformed or no individual carries it.
func (r Resolver) IndividualIDByAddress(ctx context.Context, addr string) (int64, bool, error) {
	if !ValidAddress(addr) {
		return 0, false, nil
	}
	id, err := r.Repo.IndividualIDByAddress(ctx, addr)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// OrganizationIDsForIndividual returns the organizations the individual
// belongs to, for "is this individual represented by one of these orgs"
// checks in scoped listings.
func (r Resolver) OrganizationIDsForIndividual(ctx context.Context, individualID int64) ([]int64, error) {
	if individualID <= 0 {
		return nil, nil
	}
	return r.Repo.OrganizationIDsForIndividual(ctx, individualID)
}
