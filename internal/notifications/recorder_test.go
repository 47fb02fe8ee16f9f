package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/notifications"
	"github.com/agencyhub/backend/pkg/apperr"
)

type memStore struct {
	created []models.Notification
}

func (m *memStore) Create(_ context.Context, n *models.Notification) error {
	m.created = append(m.created, *n)
	return nil
}

type memUsers struct {
	byEmail     map[string]*models.User
	firstByAgcy map[string]*models.User // by subaccount id
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m memUsers) FirstInAgencyOfSubAccount(_ context.Context, subID string) (*models.User, error) {
	return m.firstByAgcy[subID], nil
}

type memSubaccounts map[string]*models.SubAccount

func (m memSubaccounts) GetByID(_ context.Context, id string) (*models.SubAccount, error) {
	return m[id], nil
}

type fakeDirectory struct {
	user *identity.User
}

func (f fakeDirectory) CurrentUser(context.Context) (*identity.User, error) { return f.user, nil }

func (fakeDirectory) UpdateRoleClaim(context.Context, string, models.Role) error { return nil }

type failingPublisher struct{ calls int }

func (p *failingPublisher) PublishNotification(context.Context, models.Notification) error {
	p.calls++
	return errors.New("redis down")
}

func fixture() (*memStore, memUsers, memSubaccounts) {
	ann := &models.User{ID: "u1", Name: "Ann Lee", Email: "ann@acme.io"}
	bob := &models.User{ID: "u2", Name: "Bob Ray", Email: "bob@acme.io"}
	return &memStore{},
		memUsers{
			byEmail:     map[string]*models.User{"ann@acme.io": ann},
			firstByAgcy: map[string]*models.User{"s1": bob},
		},
		memSubaccounts{"s1": {ID: "s1", AgencyID: "A1"}}
}

func TestRecordValidatesInput(t *testing.T) {
	store, users, subs := fixture()
	r := notifications.NewRecorder(store, users, subs, fakeDirectory{}, nil, nil)

	_, err := r.Record(context.Background(), notifications.Entry{Description: "Updated"})
	require.True(t, apperr.Is(err, apperr.EInvalid))

	_, err = r.Record(context.Background(), notifications.Entry{SubAccountID: "s1", Description: "  "})
	require.True(t, apperr.Is(err, apperr.EInvalid))
	require.Empty(t, store.created)
}

func TestRecordUnknownSubAccountIsNotFound(t *testing.T) {
	store, users, subs := fixture()
	users.firstByAgcy["ghost"] = users.firstByAgcy["s1"]
	r := notifications.NewRecorder(store, users, subs, fakeDirectory{}, nil, nil)

	_, err := r.Record(context.Background(), notifications.Entry{SubAccountID: "ghost", Description: "Updated"})
	require.True(t, apperr.Is(err, apperr.ENotFound))
	require.Empty(t, store.created)
}

func TestRecordWithSessionUsesSignedInUser(t *testing.T) {
	store, users, subs := fixture()
	pub := &failingPublisher{}
	r := notifications.NewRecorder(store, users, subs, fakeDirectory{}, pub, nil)
	ctx := identity.WithSession(context.Background(), &identity.Session{UserID: "u1", Email: "ann@acme.io"})

	n, err := r.Record(ctx, notifications.Entry{SubAccountID: "s1", Description: "Updated funnel"})
	require.NoError(t, err)
	require.Equal(t, "Ann Lee | Updated funnel", n.Notification)
	require.Equal(t, "A1", n.AgencyID)
	require.Equal(t, "s1", *n.SubAccountID)
	require.Equal(t, "u1", n.UserID)
	require.Len(t, store.created, 1)
	// publish failures never fail the write
	require.Equal(t, 1, pub.calls)
}

func TestRecordSessionEmailFallsBackToDirectory(t *testing.T) {
	store, users, subs := fixture()
	dir := fakeDirectory{user: &identity.User{ID: "u1", EmailAddresses: []identity.EmailAddress{{EmailAddress: "ann@acme.io"}}}}
	r := notifications.NewRecorder(store, users, subs, dir, nil, nil)
	ctx := identity.WithSession(context.Background(), &identity.Session{UserID: "u1"})

	n, err := r.Record(ctx, notifications.Entry{AgencyID: "A9", SubAccountID: "s1", Description: "Hi"})
	require.NoError(t, err)
	require.Equal(t, "A9", n.AgencyID)
	require.Equal(t, "u1", n.UserID)
}

func TestRecordWithoutSessionUsesFirstAgencyUser(t *testing.T) {
	store, users, subs := fixture()
	r := notifications.NewRecorder(store, users, subs, fakeDirectory{}, nil, nil)

	n, err := r.Record(context.Background(), notifications.Entry{SubAccountID: "s1", Description: "Form submitted"})
	require.NoError(t, err)
	require.Equal(t, "Bob Ray | Form submitted", n.Notification)
}

func TestRecordWithoutActingUserWritesNothing(t *testing.T) {
	store, users, subs := fixture()
	r := notifications.NewRecorder(store, users, subs, fakeDirectory{}, nil, nil)
	ctx := identity.WithSession(context.Background(), &identity.Session{UserID: "u9", Email: "nobody@acme.io"})

	n, err := r.Record(ctx, notifications.Entry{SubAccountID: "s1", Description: "Updated"})
	require.NoError(t, err)
	require.Nil(t, n)
	require.Empty(t, store.created)
}
