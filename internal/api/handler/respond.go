package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/api/middleware"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/pkg/apperrors"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"success":false,"error":{"kind":"INTERNAL","message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	kind := apperrors.Kind(err)

	status := http.StatusInternalServerError
	message := "An unexpected error occurred."
	field := ""

	switch kind {
	case "NOT_FOUND":
		status, message = http.StatusNotFound, err.Error()
	case "VALIDATION", "CONFLICT":
		status, message = http.StatusBadRequest, err.Error()
	case "FORBIDDEN":
		status, message = http.StatusForbidden, err.Error()
	case "UNAUTHORIZED":
		status, message = http.StatusUnauthorized, err.Error()
	}

	var validationError *apperrors.ValidationError
	if errors.As(err, &validationError) {
		field = validationError.Field
	}

	respondJSON(w, status, dto.ErrorResponse{
		Success: false,
		Error: dto.ErrorDetail{
			Kind:    kind,
			Message: message,
			Field:   field,
		},
	})
}

func idFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%s not found in URL path", param)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// principal extracts the authenticated caller. The auth middleware guarantees
// it is present on every gated route; its absence is a wiring bug.
func principal(w http.ResponseWriter, r *http.Request) (user.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, fmt.Errorf("%w: no principal in request context", apperrors.ErrUnauthorized))
		return user.Principal{}, false
	}
	return p, true
}
