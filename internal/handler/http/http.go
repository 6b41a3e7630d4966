package http

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/zarick1/natours/internal/errors"
	"github.com/zarick1/natours/internal/httputil"
	"github.com/zarick1/natours/internal/query"
)

// maxBodyBytes caps request bodies at 1MB.
const maxBodyBytes = 1 << 20

// readJSON decodes the request body into dst. On failure it writes the error
// response itself and returns false.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// buildSpec translates the request query string into a query description and
// checks every referenced field against the entity's column set. On failure it
// writes the error response itself and returns nil.
func buildSpec(w http.ResponseWriter, r *http.Request, cols query.Columns) *query.Spec {
	spec, err := query.Build(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err)
		return nil
	}
	if err := spec.Validate(cols); err != nil {
		httputil.WriteError(w, r, err)
		return nil
	}
	return spec
}

// writeList writes a paginated list payload, shaping each item down to the
// requested fields when a projection was asked for.
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T, total int, spec *query.Spec) {
	if len(spec.Fields) > 0 {
		shaped, err := query.ProjectList(items, spec.Fields)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, httputil.NewListData(shaped, total, spec.Page, spec.Limit))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewListData(items, total, spec.Page, spec.Limit))
}
