package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"campus.org/internal/audit"
	"campus.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "This field is required."
	}
	if req.Password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		writeFieldErrors(w, r, fields)
		return
	}

	pair, err := a.session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, auth.ErrBadCredentials):
			writeError(w, r, http.StatusUnauthorized, "bad credentials")
		case errors.Is(err, auth.ErrAccountInactive):
			writeError(w, r, http.StatusUnauthorized, "account is inactive")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "session.login", map[string]any{
		"email": strings.ToLower(strings.TrimSpace(req.Email)),
	})
	writeJSON(w, http.StatusOK, pair)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		writeFieldErrors(w, r, map[string]string{"refresh": "This field is required."})
		return
	}

	pair, err := a.session.Refresh(r.Context(), req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(w, r, http.StatusBadRequest, "invalid refresh token")
		case errors.Is(err, auth.ErrSessionExpired):
			writeError(w, r, http.StatusUnauthorized, "session expired")
		case errors.Is(err, auth.ErrAccountInactive):
			writeError(w, r, http.StatusUnauthorized, "account is inactive")
		case errors.Is(err, auth.ErrAccountNotFound):
			writeError(w, r, http.StatusNotFound, "account not found")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "session.refresh", nil)
	writeJSON(w, http.StatusOK, pair)
}

// handleCheck reports the authenticated caller's identity. withAuth has
// already validated the access token by the time this runs.
func (a *API) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sub":   principal.AccountID,
		"role":  principal.Role,
		"perms": principal.Permissions,
	})
}

// handleLogout denylists the presented refresh token. Always 204: logging
// out with a dead token is still logged out.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err == nil && req.Refresh != "" {
		if err := a.session.Logout(r.Context(), req.Refresh); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		_ = audit.LogEvent(r.Context(), "session.logout", nil)
	}
	w.WriteHeader(http.StatusNoContent)
}
