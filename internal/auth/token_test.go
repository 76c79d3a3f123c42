package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growf/platform-backend/internal/identity"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	orgID := uuid.New()
	p := identity.Principal{UserID: uuid.New(), Role: identity.RoleOrganization, OrganizationID: &orgID}

	token, expiresAt, err := m.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, parsed.UserID)
	assert.Equal(t, identity.RoleOrganization, parsed.Role)
	require.NotNil(t, parsed.OrganizationID)
	assert.Equal(t, orgID, *parsed.OrganizationID)
	assert.Nil(t, parsed.CompanyID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).Issue(identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.Issue(identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
