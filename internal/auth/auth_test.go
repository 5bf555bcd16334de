package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-signing-key"

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(secret)
	require.NoError(t, err)
	return v
}

func TestVerify_ValidToken(t *testing.T) {
	token, err := Sign(secret, Identity{Agent: "guard-7", Role: RoleSecurity}, time.Hour)
	require.NoError(t, err)

	id, err := newVerifier(t).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Agent: "guard-7", Role: RoleSecurity}, id)
}

func TestVerify_Expired(t *testing.T) {
	token, err := Sign(secret, Identity{Agent: "guard-7", Role: RoleSecurity}, -time.Hour)
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongKey(t *testing.T) {
	token, err := Sign("another-key", Identity{Agent: "guard-7", Role: RoleSecurity}, time.Hour)
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := newVerifier(t).Verify("invalid-token-string")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_UnknownRoleRejected(t *testing.T) {
	token, err := Sign(secret, Identity{Agent: "visitor-1", Role: "visitor"}, time.Hour)
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubjectRejected(t *testing.T) {
	token, err := Sign(secret, Identity{Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_NoneAlgorithmRejected(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             string(RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "mallory"},
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyHeader(t *testing.T) {
	v := newVerifier(t)
	token, err := Sign(secret, Identity{Agent: "admin-1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	id, err := v.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, id.Role)

	_, err = v.VerifyHeader("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = v.VerifyHeader("Basic abc")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Agent: "guard-1", Role: RoleSecurity})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "guard-1", id.Agent)
	assert.True(t, id.Allowed(RoleAdmin, RoleSecurity))
	assert.False(t, id.Allowed(RoleAdmin))
}
