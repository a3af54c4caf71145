package routehandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats struct{ stats models.AdminStats }

func (s staticStats) GetAdminStats(context.Context) (*models.AdminStats, error) {
	return &s.stats, nil
}

func TestBanUser(t *testing.T) {
	admin := newUser("root", true)
	other := newUser("otheradmin", true)
	seller := newUser("seller", false)
	users := newMemUsers(admin, other, seller)
	h := NewAdminHandler(users, staticStats{}, sanitize.New())

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"self", admin.ID, http.StatusForbidden},
		{"another admin", other.ID, http.StatusForbidden},
		{"unknown user", "6f0e2d46-8f63-4a53-9d2c-2f5f0b9b8a11", http.StatusNotFound},
		{"bad id", "nope", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := withParams(asUser(jsonRequest(t, http.MethodPost, "/", nil), admin), paramID, tc.target)
			rec := serve(h.HandleBanUser, req)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
		})
	}

	req := withParams(asUser(jsonRequest(t, http.MethodPost, "/", map[string]any{"reason": " <b>spam</b> "}), admin), paramID, seller.ID)
	rec := serve(h.HandleBanUser, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.User.IsBanned)
	require.NotNil(t, body.User.BanReason)
	assert.Equal(t, "spam", *body.User.BanReason)

	rec = serve(h.HandleUnbanUser, withParams(asUser(jsonRequest(t, http.MethodPost, "/", nil), admin), paramID, seller.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, users.users[seller.ID].IsBanned)
	assert.Nil(t, users.users[seller.ID].BanReason)
}

func TestBanUserWithoutBody(t *testing.T) {
	admin := newUser("root", true)
	seller := newUser("seller", false)
	users := newMemUsers(admin, seller)
	h := NewAdminHandler(users, staticStats{}, sanitize.New())

	req := withParams(asUser(jsonRequest(t, http.MethodPost, "/", nil), admin), paramID, seller.ID)
	req.ContentLength = 0
	rec := serve(h.HandleBanUser, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, users.users[seller.ID].IsBanned)
}

func TestSetUserRole(t *testing.T) {
	admin := newUser("root", true)
	seller := newUser("seller", false)
	users := newMemUsers(admin, seller)
	h := NewAdminHandler(users, staticStats{}, sanitize.New())

	rec := serve(h.HandleSetUserRole, withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{"is_admin": false}), admin), paramID, admin.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, users.users[admin.ID].IsAdmin)

	rec = serve(h.HandleSetUserRole, withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{}), admin), paramID, seller.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "is_admin", decodeError(t, rec).Field)

	rec = serve(h.HandleSetUserRole, withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{"is_admin": true}), admin), paramID, seller.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, users.users[seller.ID].IsAdmin)
}

func TestGetUsersAndStats(t *testing.T) {
	admin := newUser("root", true)
	h := NewAdminHandler(newMemUsers(admin, newUser("seller", false)), staticStats{stats: models.AdminStats{Users: models.UserStats{Total: 2}}}, sanitize.New())

	rec := serve(h.HandleGetUsers, asUser(jsonRequest(t, http.MethodGet, "/", nil), admin))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Users []models.UserWithStats `json:"users"`
		Total int                    `json:"total"`
		Pages int                    `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Users, 2)
	assert.Equal(t, 2, body.Total)

	rec = serve(h.HandleGetStats, asUser(jsonRequest(t, http.MethodGet, "/", nil), admin))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.AdminStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Users.Total)
}
