package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
)

// ProfileStore is the slice of the user repository the profile endpoints need.
type ProfileStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, phone, email *string) error
}

type AuthHandler struct {
	Auth  *auth.Service
	Users ProfileStore
}

func NewAuthHandler(svc *auth.Service, users ProfileStore) *AuthHandler {
	return &AuthHandler{Auth: svc, Users: users}
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	user, token, err := h.Auth.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusCreated, authResponse{Message: "Registration successful", Token: token, User: user})
	return nil
}

// HandleLogin accepts a username or an email in the username field.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}

	user, token, err := h.Auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusOK, authResponse{Message: "Login successful", Token: token, User: user})
	return nil
}

func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req struct {
		Phone *string `json:"phone"`
		Email *string `json:"email"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	var phone, email *string
	if req.Phone != nil {
		p := strings.TrimSpace(*req.Phone)
		phone = &p
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := auth.ValidateEmail(e); err != nil {
			return err
		}
		email = &e
	}

	if phone != nil || email != nil {
		if err := h.Users.UpdateProfile(r.Context(), user.ID, phone, email); err != nil {
			return err
		}
	}

	updated, err := h.Users.GetUserByID(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to reload user %s: %w", user.ID, err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, updated)
	return nil
}

func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		return webutil.ErrValidation("current_password", "current_password is required")
	}

	if err := h.Auth.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
	return nil
}

func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	resp := map[string]any{"valid": true, "user": user}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time.UTC()
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
	return nil
}
