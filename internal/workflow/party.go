package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"dealflow/internal/domain"
	"dealflow/internal/ids"
	"dealflow/internal/repo"
)

// normalizeName folds a display name into the canonical lookup key: lowered,
// whitespace collapsed, common legal suffixes stripped.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	for _, suffix := range []string{" pvt ltd", " pvt. ltd.", " private limited", " ltd", " ltd.", " llp", " inc", " inc.", " llc", " gmbh"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimSpace(s)
}

type partyIdentity struct {
	Name         string
	Country      string
	Kind         string
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// resolveOrCreateParty finds the canonical counterparty by normalized name and
// country within the tenant, creating it with status unverified when absent.
// Runs in the caller's transaction so a conversion cannot race itself into
// duplicate parties.
func (e Engine) resolveOrCreateParty(ctx context.Context, tx *sql.Tx, t Tenant, id partyIdentity) (domain.Party, error) {
	normalized := normalizeName(id.Name)
	existing, err := e.Repo.FindPartyTx(ctx, tx, t.OrgID, id.Kind, normalized, id.Country)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Party{}, err
	}
	p := domain.Party{
		ID:             ids.New(ids.Party),
		OrgID:          t.OrgID,
		Name:           id.Name,
		NormalizedName: normalized,
		Country:        id.Country,
		Kind:           id.Kind,
		ContactName:    id.ContactName,
		ContactEmail:   id.ContactEmail,
		ContactPhone:   id.ContactPhone,
		Status:         "unverified",
		CreatedAt:      e.now().UTC().Format(time.RFC3339),
	}
	return p, e.Repo.InsertPartyTx(ctx, tx, p)
}
