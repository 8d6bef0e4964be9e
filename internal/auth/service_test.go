package auth

import (
	"context"
	"testing"
	"time"

	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOperators struct {
	byUsername map[string]*types.Operator
}

func (m *memOperators) OperatorByUsername(_ context.Context, username string) (*types.Operator, error) {
	op, ok := m.byUsername[username]
	if !ok {
		return nil, types.ErrNotFound
	}
	return op, nil
}

func (m *memOperators) SaveOperator(_ context.Context, op *types.Operator) error {
	m.byUsername[op.Username] = op
	return nil
}

func newTestService() (*Service, *memOperators) {
	store := &memOperators{byUsername: make(map[string]*types.Operator)}
	svc := NewService(store, config.AuthConfig{AccessTokenTTL: time.Hour})
	return svc, store
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.HashPassword("correct horse battery")
	require.NoError(t, err)

	ok, err := hasher.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	op, err := svc.CreateOperator(ctx, "alice", "s3cret-s3cret", "admin")
	require.NoError(t, err)

	token, loggedIn, err := svc.Login(ctx, "alice", "s3cret-s3cret")
	require.NoError(t, err)
	assert.Equal(t, op.ID, loggedIn.ID)

	claims, err := svc.ClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, op.ID, claims.OperatorID)
	assert.Equal(t, "admin", claims.Role)

	assert.NoError(t, svc.ValidateToken(token))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateOperator(ctx, "alice", "s3cret-s3cret", "operator")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	wrongPass := err.Error()

	_, _, err = svc.Login(ctx, "nobody", "s3cret-s3cret")
	require.Error(t, err)

	// Unknown user and wrong password must be indistinguishable
	assert.Equal(t, wrongPass, err.Error())
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService()
	assert.Error(t, svc.ValidateToken("not-a-token"))
}
