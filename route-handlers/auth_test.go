package routehandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authBody struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

func newAuthHandler(users *memUsers) (*AuthHandler, *auth.TokenService) {
	tokens := auth.NewTokenService("test-secret")
	return NewAuthHandler(auth.NewService(users, tokens), users), tokens
}

func TestRegisterThenLogin(t *testing.T) {
	users := newMemUsers()
	h, tokens := newAuthHandler(users)

	rec := serve(h.HandleRegister, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice", "email": "a@example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = serve(h.HandleLogin, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loggedIn authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))

	claims, err := tokens.Verify(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	rec = serve(h.HandleLogin, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "wrong-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, webutil.KindInvalidCredentials, decodeError(t, rec).Error)
}

func TestLoginByEmail(t *testing.T) {
	users := newMemUsers()
	h, _ := newAuthHandler(users)
	rec := serve(h.HandleRegister, jsonRequest(t, http.MethodPost, "/", map[string]string{
		"username": "bob", "email": "Bob@Example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(h.HandleLogin, jsonRequest(t, http.MethodPost, "/", map[string]string{
		"username": "bob@example.com", "password": "secret1",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRejections(t *testing.T) {
	users := newMemUsers()
	h, _ := newAuthHandler(users)
	rec := serve(h.HandleRegister, jsonRequest(t, http.MethodPost, "/", map[string]string{
		"username": "alice", "email": "a@example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	cases := []struct {
		name  string
		body  map[string]string
		kind  string
		field string
	}{
		{"short username", map[string]string{"username": "al", "email": "x@example.com", "password": "secret1"}, webutil.KindValidation, "username"},
		{"username is an email", map[string]string{"username": "a@example.com", "email": "m@example.com", "password": "secret1"}, webutil.KindValidation, "username"},
		{"bad email", map[string]string{"username": "carol", "email": "nope", "password": "secret1"}, webutil.KindValidation, "email"},
		{"short password", map[string]string{"username": "carol", "email": "c@example.com", "password": "12345"}, webutil.KindValidation, "password"},
		{"taken username", map[string]string{"username": "alice", "email": "other@example.com", "password": "secret1"}, webutil.KindDuplicateUsername, "username"},
		{"taken email", map[string]string{"username": "carol", "email": "a@example.com", "password": "secret1"}, webutil.KindDuplicateEmail, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h.HandleRegister, jsonRequest(t, http.MethodPost, "/", tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.kind, body.Error)
			assert.Equal(t, tc.field, body.Field)
		})
	}
}

func TestChangePassword(t *testing.T) {
	users := newMemUsers()
	h, _ := newAuthHandler(users)
	rec := serve(h.HandleRegister, jsonRequest(t, http.MethodPost, "/", map[string]string{
		"username": "alice", "email": "a@example.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	alice, err := users.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	rec = serve(h.HandleChangePassword, asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{
		"current_password": "wrong", "new_password": "secret2",
	}), alice))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h.HandleChangePassword, asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{
		"current_password": "secret1", "new_password": "123",
	}), alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "new_password", decodeError(t, rec).Field)

	rec = serve(h.HandleChangePassword, asUser(jsonRequest(t, http.MethodPost, "/", map[string]string{
		"current_password": "secret1", "new_password": "secret2",
	}), alice))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h.HandleLogin, jsonRequest(t, http.MethodPost, "/", map[string]string{
		"username": "alice", "password": "secret2",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	alice := newUser("alice", false)
	bob := newUser("bob", false)
	users := newMemUsers(alice, bob)
	h, _ := newAuthHandler(users)

	rec := serve(h.HandleUpdateProfile, asUser(jsonRequest(t, http.MethodPut, "/", map[string]string{
		"phone": " 0555 ", "email": "Alice2@Example.com",
	}), alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "alice2@example.com", updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "0555", *updated.Phone)

	rec = serve(h.HandleUpdateProfile, asUser(jsonRequest(t, http.MethodPut, "/", map[string]string{
		"email": bob.Email,
	}), alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, webutil.KindDuplicateEmail, decodeError(t, rec).Error)
}

func TestVerifyReportsTokenExpiry(t *testing.T) {
	alice := newUser("alice", false)
	h, tokens := newAuthHandler(newMemUsers(alice))
	token, err := tokens.Issue(alice)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)

	req := jsonRequest(t, http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), alice, claims))
	rec := serve(h.HandleVerify, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Valid     bool        `json:"valid"`
		User      models.User `json:"user"`
		ExpiresAt time.Time   `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, alice.ID, body.User.ID)
	assert.True(t, body.ExpiresAt.Equal(claims.ExpiresAt.Time))

	rec = serve(h.HandleVerify, asUser(jsonRequest(t, http.MethodGet, "/", nil), alice))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "expires_at")
}

func TestProfileRequiresUser(t *testing.T) {
	h, _ := newAuthHandler(newMemUsers())
	rec := serve(h.HandleGetProfile, jsonRequest(t, http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, webutil.KindMissingToken, decodeError(t, rec).Error)
}
