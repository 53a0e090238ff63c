package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Verify(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	future := time.Now().Add(24 * time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name     string
		token    string
		wantErr  bool
		wantID   string
		wantName string
	}{
		{
			name:     "numeric id",
			token:    signHS256(t, testSecret, jwt.MapClaims{"id": 42, "username": "maria", "exp": future}),
			wantID:   "42",
			wantName: "maria",
		},
		{
			name:     "string id without exp",
			token:    signHS256(t, testSecret, jwt.MapClaims{"id": "u-7", "username": "juan"}),
			wantID:   "u-7",
			wantName: "juan",
		},
		{
			name:    "expired",
			token:   signHS256(t, testSecret, jwt.MapClaims{"id": 42, "exp": past}),
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   signHS256(t, "other-secret", jwt.MapClaims{"id": 42, "exp": future}),
			wantErr: true,
		},
		{
			name:    "missing id",
			token:   signHS256(t, testSecret, jwt.MapClaims{"username": "nobody", "exp": future}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: true,
		},
		{
			name:    "empty",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(context.Background(), tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id.UserID)
			assert.Equal(t, tt.wantName, id.Username)
		})
	}
}

func TestJWTVerifier_RejectsAlgNone(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_RejectsOtherHMAC(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"id": 1}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := NewJWTVerifier("")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	v, err := New("jwt", testSecret, "", time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, &JWTVerifier{}, v)

	v, err = New("remote", "", "http://localhost:3000", time.Second, nil)
	require.NoError(t, err)
	assert.IsType(t, &RemoteVerifier{}, v)

	_, err = New("jwt", "", "", time.Second, nil)
	assert.Error(t, err)

	_, err = New("oauth", testSecret, "", time.Second, nil)
	assert.Error(t, err)
}
