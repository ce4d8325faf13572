// internal/api/handler/location.go
package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"membership-service/internal/api/types"
	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/service"
)

// LocationHandler handles HTTP requests related to locations.
type LocationHandler struct {
	responder
	locations service.LocationService
}

func NewLocationHandler(locations service.LocationService, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		responder: responder{logger: logger.With().Str("handler", "location").Logger()},
		locations: locations,
	}
}

type CreateLocationRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Address    string `json:"address" validate:"max=200"`
	City       string `json:"city" validate:"max=100"`
	Locale     string `json:"locale" validate:"omitempty,bcp47_language_tag"`
	PostalCode string `json:"postal_code" validate:"max=20"`
}

// GET /api/locations?city=&disabled=
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	filter := repository.LocationFilter{City: r.URL.Query().Get("city")}
	var err error
	if filter.Disabled, err = queryBool(r, "disabled"); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	locations, err := h.locations.ListLocations(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(locations))
}

// GET /api/locations/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	guid, err := guidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	location, err := h.locations.GetLocation(r.Context(), guid)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, location)
}

// POST /api/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	location, err := h.locations.CreateLocation(r.Context(),
		domain.NewLocation(req.Name, req.Address, req.City, req.Locale, req.PostalCode))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, location)
}

// DELETE /api/locations/{id}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	guid, err := guidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.locations.DeleteLocation(r.Context(), guid); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
