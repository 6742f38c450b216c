package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"matchday/internal/httputil"
	"matchday/internal/model"
	"matchday/internal/transport/http/middleware"
	"matchday/internal/validate"
)

// maxBodyBytes caps request bodies read by decodeAndValidate.
const maxBodyBytes = 1 << 20

// requireUser returns the authenticated user id, writing a 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// Enum fields reject unknown values while decoding
		if errors.Is(err, model.ErrValidation) {
			httputil.WriteServiceError(w, err, "")
			return false
		}
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httputil.WriteServiceError(w, err, "")
		return false
	}
	return true
}

// parseIDParam parses a positive integer path parameter.
func parseIDParam(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, model.NewValidationError("id", "must be a positive integer")
	}
	return v, nil
}

// queryInt64 parses an optional positive integer query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, model.NewValidationError(name, "must be a positive integer")
	}
	return &v, nil
}
