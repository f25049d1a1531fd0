package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/portal-api/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewStore(st)
}

// signedToken builds a real HS256 token carrying the given claims. The
// session store never verifies signatures, so the key is arbitrary.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestSetGetClear(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Get()
	assert.False(t, ok)
	assert.False(t, s.IsAuthenticated())

	sess := Session{
		Token:      "tok",
		User:       &Identity{Username: "alice", Role: "staff"},
		LoggedInAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Set(sess))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "alice", got.User.Username)
	assert.True(t, s.IsAuthenticated())

	require.NoError(t, s.Clear())
	_, ok = s.Get()
	assert.False(t, ok)
	assert.False(t, s.IsAuthenticated())
}

func TestSubscribersNotifiedOnEveryMutation(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	cancel := s.Subscribe(func() { calls++ })
	defer cancel()

	require.NoError(t, s.Set(Session{Token: "tok", LoggedInAt: time.Now()}))
	require.NoError(t, s.Clear())

	assert.Equal(t, 2, calls)
}

func TestDisplayNamePrefersExplicitIdentity(t *testing.T) {
	s := newTestStore(t)

	token := signedToken(t, jwt.MapClaims{"username": "from-claims"})
	require.NoError(t, s.Set(Session{
		Token:      token,
		User:       &Identity{Username: "explicit"},
		LoggedInAt: time.Now(),
	}))

	assert.Equal(t, "explicit", s.DisplayName())
}

func TestDisplayNameFallsBackThroughClaims(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		claims jwt.MapClaims
		want   string
	}{
		{jwt.MapClaims{"username": "u1"}, "u1"},
		{jwt.MapClaims{"user": "u2"}, "u2"},
		{jwt.MapClaims{"email": "u3@example.com"}, "u3@example.com"},
		{jwt.MapClaims{}, "-"},
	}

	for _, tc := range cases {
		require.NoError(t, s.Set(Session{Token: signedToken(t, tc.claims), LoggedInAt: time.Now()}))
		assert.Equal(t, tc.want, s.DisplayName())
	}
}

func TestDisplayNameMalformedToken(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(Session{Token: "not-a-jwt", LoggedInAt: time.Now()}))
	assert.Equal(t, "-", s.DisplayName())

	require.NoError(t, s.Set(Session{Token: "a.b.c", LoggedInAt: time.Now()}))
	assert.Equal(t, "-", s.DisplayName())
}

func TestIsAdmin(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		role string
		want bool
	}{
		{"admin", true},
		{"Admin", true},
		{"ADMIN_USER", true},
		{"superadmin", true},
		{"staff", false},
		{"", false},
	}

	for _, tc := range cases {
		var user *Identity
		if tc.role != "" {
			user = &Identity{Role: tc.role}
		}
		require.NoError(t, s.Set(Session{Token: "tok", User: user, LoggedInAt: time.Now()}))
		assert.Equal(t, tc.want, s.IsAdmin(), "role %q", tc.role)
	}
}

func TestRoleFromClaims(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(Session{
		Token:      signedToken(t, jwt.MapClaims{"role": "Administrator"}),
		LoggedInAt: time.Now(),
	}))
	assert.Equal(t, "Administrator", s.Role())
	assert.True(t, s.IsAdmin())

	require.NoError(t, s.Set(Session{
		Token:      signedToken(t, jwt.MapClaims{"roles": []string{"editor", "admin"}}),
		LoggedInAt: time.Now(),
	}))
	assert.Equal(t, "editor", s.Role())
	assert.False(t, s.IsAdmin())
}

// A token with no role claim at all must not grant admin, and the derived
// role must be empty.
func TestNoRoleClaimMeansNotAdmin(t *testing.T) {
	s := newTestStore(t)

	token := signedToken(t, jwt.MapClaims{"username": "carl"})
	require.NoError(t, s.Set(Session{Token: token, LoggedInAt: time.Now()}))

	assert.Equal(t, "carl", s.DisplayName())
	assert.Empty(t, s.Role())
	assert.False(t, s.IsAdmin())
}

func TestCorruptPersistedSessionDegradesToUnauthenticated(t *testing.T) {
	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	s := NewStore(st)

	require.NoError(t, st.Save(storage.KeyAuth, "not an object"))

	_, ok := s.Get()
	assert.False(t, ok)
	assert.False(t, s.IsAuthenticated())
}
