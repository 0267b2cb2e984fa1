package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_ValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer session-abc", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"user-42","email":"w@zkwatch.io"}`))
	}))
	defer srv.Close()

	user, err := NewClient(srv.URL).Authenticate(context.Background(), "session-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-42", user.ID)
	assert.Equal(t, "w@zkwatch.io", user.Email)
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Authenticate(context.Background(), "nope")
	assert.Error(t, err)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Authenticate(context.Background(), "")
	assert.Error(t, err)
}

func TestAuthenticate_MissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Authenticate(context.Background(), "tok")
	assert.Error(t, err)
}
