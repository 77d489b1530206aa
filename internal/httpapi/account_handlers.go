package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"campus.org/internal/resource"
)

// handleEmailCheck reports whether an email is free to register. Used by
// signup forms before submitting the full account payload.
func (a *API) handleEmailCheck(w http.ResponseWriter, r *http.Request) {
	a.availabilityCheck(w, r, "email", func(value string) (bool, error) {
		_, err := a.accounts.FindByEmail(r.Context(), value)
		if errors.Is(err, resource.ErrNotFound) {
			return true, nil
		}
		return false, err
	})
}

// handleMobileCheck reports whether a mobile number is free.
func (a *API) handleMobileCheck(w http.ResponseWriter, r *http.Request) {
	a.availabilityCheck(w, r, "mobile", func(value string) (bool, error) {
		matches, err := a.accounts.List(r.Context(), resource.Filter{"mobile": value})
		if err != nil {
			return false, err
		}
		return len(matches) == 0, nil
	})
}

func (a *API) availabilityCheck(w http.ResponseWriter, r *http.Request, param string, free func(string) (bool, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	value := strings.TrimSpace(strings.ToLower(r.URL.Query().Get(param)))
	if value == "" {
		writeFieldErrors(w, r, map[string]string{param: "This field is required."})
		return
	}
	available, err := free(value)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		param:       value,
		"available": available,
	})
}
