// internal/api/handler/member.go
package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"membership-service/internal/api/types"
	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/service"
)

// MemberHandler handles HTTP requests related to members.
type MemberHandler struct {
	responder
	members service.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(members service.MemberService, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{
		responder: responder{logger: logger.With().Str("handler", "member").Logger()},
		members:   members,
	}
}

// CreateMemberRequest represents the request body for adding a member.
type CreateMemberRequest struct {
	AccountUID    int64      `json:"account_uid" validate:"required,gt=0"`
	LocationUID   int64      `json:"location_uid" validate:"required,gt=0"`
	Primary       bool       `json:"primary"`
	JoinedDateUtc *time.Time `json:"joined_date_utc"`
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      string     `json:"last_name" validate:"max=100"`
	Address       string     `json:"address" validate:"max=200"`
	City          string     `json:"city" validate:"max=100"`
	Locale        string     `json:"locale" validate:"omitempty,bcp47_language_tag"`
	PostalCode    string     `json:"postal_code" validate:"max=20"`
}

// ListMembers handles listing members.
// GET /api/members?account_uid=&location_uid=&primary=&cancelled=
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	var filter repository.MemberFilter
	var err error

	if filter.AccountUID, err = queryInt64(r, "account_uid"); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if filter.LocationUID, err = queryInt64(r, "location_uid"); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if filter.Primary, err = queryBool(r, "primary"); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if filter.Cancelled, err = queryBool(r, "cancelled"); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	members, err := h.members.ListMembers(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(members))
}

// GetMember handles fetching one member.
// GET /api/members/{id}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	uid, err := uidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	member, err := h.members.GetMember(r.Context(), uid)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, member)
}

// CreateMember handles adding a member to an account.
// POST /api/members
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	var joined time.Time
	if req.JoinedDateUtc != nil {
		joined = *req.JoinedDateUtc
	}
	member := domain.NewMember(req.AccountUID, req.LocationUID, domain.Person{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address:    req.Address,
		City:       req.City,
		Locale:     req.Locale,
		PostalCode: req.PostalCode,
	}, req.Primary, joined)

	created, err := h.members.CreateMember(r.Context(), member)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

// DeleteMember handles deleting a member, promoting a new primary when needed.
// DELETE /api/members/{id}
func (h *MemberHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	uid, err := uidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.members.DeleteMember(r.Context(), uid); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllExceptPrimary handles removing every non-primary member of an account.
// DELETE /api/members/{id}/members where id is the account uid
func (h *MemberHandler) DeleteAllExceptPrimary(w http.ResponseWriter, r *http.Request) {
	accountUID, err := uidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	deleted, err := h.members.DeleteAllExceptPrimary(r.Context(), accountUID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.DeletedResponse{Deleted: deleted})
}
