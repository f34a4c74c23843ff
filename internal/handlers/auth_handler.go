package handlers

import (
	"context"
	"net/http"
	"strings"

	"webomat/internal/credentials"
	"webomat/internal/models"
)

// AuthAPI is the part of the API client used for sign-in.
type AuthAPI interface {
	RequestToken(ctx context.Context, username, password string) (*models.TokenResponse, error)
	Me(ctx context.Context) (*models.User, error)
}

type AuthHandler struct {
	Base
	API AuthAPI
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// Login accepts JSON or a form post and returns the token with the profile.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
			return
		}
	} else {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Username and password are required"})
		return
	}

	tok, err := h.API.RequestToken(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	user, err := h.API.Me(credentials.WithToken(r.Context(), tok.AccessToken))
	if err != nil {
		h.fail(w, r, "login profile", err)
		return
	}
	h.Logger.Infof("user %s signed in", user.Email)

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: tok.AccessToken, TokenType: tokenType, User: user})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.API.Me(r.Context())
	if err != nil {
		h.fail(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout is a no-op on the backend; the dashboard drops its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
