package agencies_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/agencies"
	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

type memStore struct {
	agencies map[string]*models.Agency
	owners   map[string]string
	writes   int
}

func newMemStore(as ...*models.Agency) *memStore {
	m := &memStore{agencies: map[string]*models.Agency{}, owners: map[string]string{}}
	for _, a := range as {
		m.agencies[a.ID] = a
	}
	return m
}

func (m *memStore) Create(_ context.Context, a *models.Agency, ownerID string) error {
	if a.ID == "" {
		a.ID = "generated"
	}
	if _, ok := m.agencies[a.ID]; ok {
		return apperr.New(apperr.EConflict, "agency already exists")
	}
	m.writes++
	m.agencies[a.ID] = a
	m.owners[a.ID] = ownerID
	return nil
}

func (m *memStore) Replace(_ context.Context, a *models.Agency, allow func(*models.Agency) error) (bool, error) {
	existing, ok := m.agencies[a.ID]
	if !ok {
		return false, nil
	}
	if err := allow(existing); err != nil {
		return false, err
	}
	m.writes++
	m.agencies[a.ID] = a
	return true, nil
}

func (m *memStore) Update(_ context.Context, id string, p agencies.Patch) (*models.Agency, error) {
	a := m.agencies[id]
	if a == nil {
		return nil, nil
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	return a, nil
}

func (m *memStore) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.agencies[id]
	delete(m.agencies, id)
	return ok, nil
}

type userFinder map[string]*models.User

func (f userFinder) FindByID(_ context.Context, id string) (*models.User, error) { return f[id], nil }

func signedIn(id string) context.Context {
	return identity.WithSession(context.Background(), &identity.Session{UserID: id})
}

func strPtr(s string) *string { return &s }

func TestUpsertValidates(t *testing.T) {
	store := newMemStore()
	svc := agencies.NewService(store, userFinder{}, nil)

	_, err := svc.Upsert(context.Background(), &models.Agency{Name: "Acme", CompanyEmail: "a@x.io"})
	require.True(t, apperr.Is(err, apperr.EUnauthenticated))

	_, err = svc.Upsert(signedIn("u1"), &models.Agency{Name: "Acme"})
	require.True(t, apperr.Is(err, apperr.EInvalid))
	require.Zero(t, store.writes)
}

func TestUpsertReplacesOnlyForMembers(t *testing.T) {
	store := newMemStore(&models.Agency{ID: "a1", Name: "Acme", CompanyEmail: "owner@acme.io"})
	users := userFinder{
		"owner":    {ID: "owner", Email: "owner@acme.io", Role: models.RoleAgencyOwner, AgencyID: strPtr("a1")},
		"guest":    {ID: "guest", Email: "g@acme.io", Role: models.RoleSubAccountGuest, AgencyID: strPtr("a1")},
		"stranger": {ID: "stranger", Email: "s@x.io", Role: models.RoleAgencyOwner, AgencyID: strPtr("a2")},
	}
	svc := agencies.NewService(store, users, nil)

	a, err := svc.Upsert(signedIn("owner"), &models.Agency{ID: "a1", Name: " Acme 2 ", CompanyEmail: "owner@acme.io"})
	require.NoError(t, err)
	require.Equal(t, "Acme 2", a.Name)
	require.Equal(t, "Acme 2", store.agencies["a1"].Name)

	_, err = svc.Upsert(signedIn("guest"), &models.Agency{ID: "a1", Name: "Hijack", CompanyEmail: "g@acme.io"})
	require.True(t, apperr.Is(err, apperr.EForbidden))
	_, err = svc.Upsert(signedIn("stranger"), &models.Agency{ID: "a1", Name: "Hijack", CompanyEmail: "s@x.io"})
	require.True(t, apperr.Is(err, apperr.EForbidden))
	require.Equal(t, "Acme 2", store.agencies["a1"].Name)
	require.Equal(t, 1, store.writes)
}

func TestUpsertCreatesForCallerOnly(t *testing.T) {
	store := newMemStore()
	users := userFinder{
		"founder": {ID: "founder", Email: "Founder@new.io", Role: models.RoleAgencyOwner},
		"victim":  {ID: "victim", Email: "victim@acme.io", Role: models.RoleAgencyOwner, AgencyID: strPtr("a1")},
	}
	svc := agencies.NewService(store, users, nil)

	_, err := svc.Upsert(signedIn("founder"), &models.Agency{Name: "Evil", CompanyEmail: "victim@acme.io"})
	require.True(t, apperr.Is(err, apperr.EForbidden))

	_, err = svc.Upsert(signedIn("victim"), &models.Agency{Name: "Second", CompanyEmail: "victim@acme.io"})
	require.True(t, apperr.Is(err, apperr.EConflict))

	_, err = svc.Upsert(signedIn("nobody"), &models.Agency{Name: "Ghost", CompanyEmail: "ghost@x.io"})
	require.True(t, apperr.Is(err, apperr.EForbidden))
	require.Zero(t, store.writes)

	a, err := svc.Upsert(signedIn("founder"), &models.Agency{ID: "new1", Name: "Founders", CompanyEmail: "founder@new.io"})
	require.NoError(t, err)
	require.Equal(t, "new1", a.ID)
	require.Equal(t, "founder", store.owners["new1"])
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	store := newMemStore(&models.Agency{ID: "a1", Name: "Acme"})
	svc := agencies.NewService(store, userFinder{}, nil)

	name := "Renamed"
	a, err := svc.UpdateDetails(context.Background(), "a1", agencies.Patch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", a.Name)

	_, err = svc.UpdateDetails(context.Background(), "missing", agencies.Patch{Name: &name})
	require.True(t, apperr.Is(err, apperr.ENotFound))

	empty := " "
	_, err = svc.UpdateDetails(context.Background(), "a1", agencies.Patch{CompanyEmail: &empty})
	require.True(t, apperr.Is(err, apperr.EInvalid))

	require.NoError(t, svc.Delete(context.Background(), "a1"))
	require.True(t, apperr.Is(svc.Delete(context.Background(), "a1"), apperr.ENotFound))
}

func TestAgencySidebar(t *testing.T) {
	opts := agencies.AgencySidebar("a1")
	require.Len(t, opts, 6)
	require.Equal(t, "/agency/a1", opts[0].Link)
	require.Equal(t, "/agency/a1/all-subaccounts", opts[4].Link)
	require.Equal(t, "Team", opts[5].Name)
}
