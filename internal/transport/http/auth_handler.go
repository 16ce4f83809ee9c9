package http

import (
	"net/http"

	"kambaz-quiz-service/internal/identity"
)

// SessionTokenHeader carries the session token for clients that cannot keep cookies.
const SessionTokenHeader = "X-Session-Token"

// AuthHandler serves sign-in, sign-out and the current profile.
type AuthHandler struct {
	auth   *identity.Authenticator
	cookie identity.CookieOptions
}

func NewAuthHandler(auth *identity.Authenticator, cookie identity.CookieOptions) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := h.auth.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	identity.SetSessionCookie(w, h.cookie, token)
	w.Header().Set(SessionTokenHeader, token)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), identity.TokenFromRequest(r, h.cookie.Name)); err != nil {
		writeError(w, r, err)
		return
	}
	identity.ClearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
