package user_test

import (
	"testing"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := user.NewUser("  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = user.NewUser("   ")
	assert.Equal(t, domain.InvalidRequest, domain.CodeOf(err))
}
