package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"campus.org/internal/audit"
	"campus.org/internal/auth"
	"campus.org/internal/resource"
)

// managePermissions gates mutations per collection.
var managePermissions = map[string]string{
	"accounts":  auth.PermManageAccounts,
	"courses":   auth.PermManageCourses,
	"classes":   auth.PermManageClasses,
	"schedules": auth.PermManageSchedules,
	"sessions":  auth.PermManageSessions,
	"calendars": auth.PermManageCalendars,
}

// mountResource registers the uniform CRUD surface for one entity type:
// POST/GET on the collection, GET/PATCH/DELETE on single items.
func (a *API) mountResource(res resource.Resource) {
	coll := res.Collection()
	perm := managePermissions[coll]

	a.mux.HandleFunc("/v1/"+coll, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			a.createResource(w, r, res, perm)
		case http.MethodGet:
			a.listResource(w, r, res)
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
		}
	})

	a.mux.HandleFunc("/v1/"+coll+"/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/"+coll+"/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			a.getResource(w, r, res, id)
		case http.MethodPatch:
			a.editResource(w, r, res, perm, id)
		case http.MethodDelete:
			a.deleteResource(w, r, res, perm, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	})
}

func (a *API) createResource(w http.ResponseWriter, r *http.Request, res resource.Resource, perm string) {
	if !a.requirePermission(w, r, perm) {
		return
	}
	var in resource.Record
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := res.Create(r.Context(), in)
	if err != nil {
		a.resourceError(w, r, err)
		return
	}

	id, _ := rec["uuid"].(string)
	a.auditEvent(r, res.Collection(), "create", id)
	w.Header().Set("Location", "/v1/"+res.Collection()+"/"+id)
	writeJSON(w, http.StatusCreated, rec)
}

// parseExclude reads the comma-separated exclude parameter shared by the
// single-item and list routes.
func parseExclude(r *http.Request) map[string]struct{} {
	exclude := map[string]struct{}{}
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				exclude[name] = struct{}{}
			}
		}
	}
	return exclude
}

func (a *API) getResource(w http.ResponseWriter, r *http.Request, res resource.Resource, id string) {
	rec, err := res.Get(r.Context(), id, parseExclude(r))
	if err != nil {
		a.resourceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) listResource(w http.ResponseWriter, r *http.Request, res resource.Resource) {
	filter := resource.Filter{}
	for key, values := range r.URL.Query() {
		// exclude is a projection directive, never a filter key.
		if key == "exclude" || len(values) == 0 {
			continue
		}
		filter[key] = values[0]
	}
	items, err := res.List(r.Context(), filter, parseExclude(r))
	if err != nil {
		a.resourceError(w, r, err)
		return
	}
	if items == nil {
		items = []resource.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) editResource(w http.ResponseWriter, r *http.Request, res resource.Resource, perm, id string) {
	if !a.requirePermission(w, r, perm) {
		return
	}
	var in resource.Record
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	changed, err := res.Edit(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, resource.ErrNoChange) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		a.resourceError(w, r, err)
		return
	}

	a.auditEvent(r, res.Collection(), "edit", id)
	writeJSON(w, http.StatusOK, map[string]any{"modified": changed})
}

func (a *API) deleteResource(w http.ResponseWriter, r *http.Request, res resource.Resource, perm, id string) {
	if !a.requirePermission(w, r, perm) {
		return
	}
	if err := res.Delete(r.Context(), id); err != nil {
		a.resourceError(w, r, err)
		return
	}

	a.auditEvent(r, res.Collection(), "delete", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (a *API) resourceError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := resource.AsFieldErrors(err); ok {
		writeFieldErrors(w, r, fields)
		return
	}
	switch {
	case errors.Is(err, resource.ErrInvalidID):
		writeError(w, r, http.StatusBadRequest, "invalid identifier")
	case errors.Is(err, resource.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) auditEvent(r *http.Request, coll, op, id string) {
	_ = audit.LogEvent(r.Context(), coll+"."+op, map[string]any{"uuid": id})
}
