package subaccounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/subaccounts"
	"github.com/agencyhub/backend/pkg/apperr"
)

type memStore struct {
	saved      []*models.SubAccount
	ownerEmail string
}

func (m *memStore) Upsert(_ context.Context, s *models.SubAccount, ownerEmail string) (bool, error) {
	if s.ID == "" {
		s.ID = "s-new"
	}
	m.saved = append(m.saved, s)
	m.ownerEmail = ownerEmail
	return true, nil
}

type memUsers map[string]*models.User

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) { return m[id], nil }

func (m memUsers) FindAgencyOwner(_ context.Context, agencyID string) (*models.User, error) {
	for _, u := range m {
		if u.Role == models.RoleAgencyOwner && u.AgencyIDValue() == agencyID {
			return u, nil
		}
	}
	return nil, nil
}

func strPtr(s string) *string { return &s }

func signedIn(id string) context.Context {
	return identity.WithSession(context.Background(), &identity.Session{UserID: id})
}

func TestUpsertGrantsOwnerAccess(t *testing.T) {
	store := &memStore{}
	users := memUsers{
		"owner": {ID: "owner", Email: "owner@acme.io", Role: models.RoleAgencyOwner, AgencyID: strPtr("a1")},
		"admin": {ID: "admin", Email: "admin@acme.io", Role: models.RoleAgencyAdmin, AgencyID: strPtr("a1")},
	}
	svc := subaccounts.NewService(store, users, nil)

	sub, err := svc.Upsert(signedIn("admin"), &models.SubAccount{AgencyID: "a1", Name: "Shop", CompanyEmail: "shop@acme.io"})
	require.NoError(t, err)
	require.Equal(t, "s-new", sub.ID)
	require.Equal(t, "owner@acme.io", store.ownerEmail)
}

func TestUpsertRejects(t *testing.T) {
	store := &memStore{}
	users := memUsers{
		"admin": {ID: "admin", Role: models.RoleAgencyAdmin, AgencyID: strPtr("a1")},
		"user":  {ID: "user", Role: models.RoleSubAccountUser, AgencyID: strPtr("a1")},
	}
	svc := subaccounts.NewService(store, users, nil)

	_, err := svc.Upsert(signedIn("admin"), &models.SubAccount{AgencyID: "a1", Name: "Shop"})
	require.True(t, apperr.Is(err, apperr.EInvalid))

	_, err = svc.Upsert(signedIn("user"), &models.SubAccount{AgencyID: "a1", Name: "Shop", CompanyEmail: "x@y.io"})
	require.True(t, apperr.Is(err, apperr.EForbidden))

	// no AGENCY_OWNER in a1
	_, err = svc.Upsert(signedIn("admin"), &models.SubAccount{AgencyID: "a1", Name: "Shop", CompanyEmail: "x@y.io"})
	require.True(t, apperr.Is(err, apperr.ENotFound))

	_, err = svc.Upsert(context.Background(), &models.SubAccount{AgencyID: "a1", Name: "Shop", CompanyEmail: "x@y.io"})
	require.True(t, apperr.Is(err, apperr.EUnauthenticated))
	require.Empty(t, store.saved)
}

func TestSubAccountSidebar(t *testing.T) {
	opts := subaccounts.SubAccountSidebar("s1")
	require.Len(t, opts, 8)
	require.Equal(t, "/subaccount/s1/launchpad", opts[0].Link)
	require.Equal(t, models.SidebarOption{Name: "Dashboard", Icon: "category", Link: "/subaccount/s1"}, opts[7])
}
