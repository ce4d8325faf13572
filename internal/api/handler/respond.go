// internal/api/handler/respond.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"membership-service/internal/api/types"
	"membership-service/internal/util"
	"membership-service/pkg/db"
)

// validate is shared by all handlers; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// responder holds the JSON helpers every handler embeds.
type responder struct {
	logger zerolog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		statusCode = http.StatusBadRequest
		message = validationMessage(verrs)
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrConflict):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, db.ErrConstraint):
		statusCode = http.StatusConflict
		message = "Request conflicts with stored data"
	case util.IsError(err, db.ErrConnection), util.IsError(err, context.DeadlineExceeded):
		statusCode = http.StatusServiceUnavailable
		message = "Database unavailable"
		h.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Store unavailable")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled service error")
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", util.ErrInvalidInput, err)
	}
	return validate.Struct(dst)
}

func validationMessage(verrs validator.ValidationErrors) string {
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// uidParam parses a positive integer path parameter.
func uidParam(r *http.Request, name string) (int64, error) {
	uid, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || uid <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", util.ErrInvalidInput, name)
	}
	return uid, nil
}

// guidParam parses a UUID path parameter.
func guidParam(r *http.Request, name string) (uuid.UUID, error) {
	guid, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", util.ErrInvalidInput, name)
	}
	return guid, nil
}

// queryInt64 returns 0 when the parameter is absent.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: query parameter %s must be a non-negative integer", util.ErrInvalidInput, name)
	}
	return v, nil
}

// queryBool returns nil when the parameter is absent.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: query parameter %s must be a boolean", util.ErrInvalidInput, name)
	}
	return &v, nil
}
