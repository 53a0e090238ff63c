package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupProfileServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"user":{"id":42,"username":"maria","email":"m@example.com"}}`))
		case "Bearer no-user":
			_, _ = w.Write([]byte(`{}`))
		case "Bearer slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"user":{"id":1,"username":"late"}}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Token inválido"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteVerifier_Verify(t *testing.T) {
	srv := setupProfileServer(t)
	v, err := NewRemoteVerifier(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.Equal(t, "maria", id.Username)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "no-user")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteVerifier_ContextTimeout(t *testing.T) {
	srv := setupProfileServer(t)
	v, err := NewRemoteVerifier(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = v.Verify(ctx, "slow")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteVerifier_Unreachable(t *testing.T) {
	v, err := NewRemoteVerifier("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRemoteVerifier_EmptyURL(t *testing.T) {
	_, err := NewRemoteVerifier("", time.Second, zap.NewNop())
	assert.Error(t, err)
}
