// internal/api/handler/account.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"membership-service/internal/api/types"
	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/service"
	"membership-service/internal/util"
)

// AccountHandler handles HTTP requests related to accounts.
type AccountHandler struct {
	responder
	accounts service.AccountService
	members  service.MemberService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts service.AccountService, members service.MemberService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		responder: responder{logger: logger.With().Str("handler", "account").Logger()},
		accounts:  accounts,
		members:   members,
	}
}

// CreateAccountRequest represents the request body for creating an account.
type CreateAccountRequest struct {
	LocationUID       int64               `json:"location_uid" validate:"required,gt=0"`
	AccountType       domain.AccountType  `json:"account_type" validate:"gte=0,lte=3"`
	Status            int                 `json:"status" validate:"gte=0"`
	PaymentAmount     decimal.NullDecimal `json:"payment_amount"`
	EndDateUtc        *time.Time          `json:"end_date_utc"`
	PendCancel        bool                `json:"pend_cancel"`
	PendCancelDateUtc *time.Time          `json:"pend_cancel_date_utc"`
	PeriodStartUtc    time.Time           `json:"period_start_utc" validate:"required"`
	PeriodEndUtc      time.Time           `json:"period_end_utc" validate:"required,gtefield=PeriodStartUtc"`
	NextBillingUtc    time.Time           `json:"next_billing_utc" validate:"required"`
}

// UpdateAccountRequest represents the request body for moving an account.
type UpdateAccountRequest struct {
	Guid        uuid.UUID `json:"guid" validate:"required"`
	LocationUID int64     `json:"location_uid" validate:"required,gt=0"`
}

// ListAccounts handles listing accounts.
// GET /api/accounts?location_uid=&account_type=&pend_cancel=
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var filter repository.AccountFilter
	var err error

	if filter.LocationUID, err = queryInt64(r, "location_uid"); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("account_type"); raw != "" {
		var t domain.AccountType
		// accept both the number and the quoted name
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			if err := json.Unmarshal([]byte(fmt.Sprintf("%q", raw)), &t); err != nil {
				h.respondWithError(w, r, fmt.Errorf("%w: %v", util.ErrInvalidInput, err))
				return
			}
		}
		if !t.Valid() {
			h.respondWithError(w, r, fmt.Errorf("%w: unknown account type %s", util.ErrInvalidInput, raw))
			return
		}
		filter.AccountType = &t
	}
	if filter.PendCancel, err = queryBool(r, "pend_cancel"); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(accounts))
}

// GetAccount handles fetching one account.
// GET /api/accounts/{id} where id is the account guid
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	guid, err := guidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), guid)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, account)
}

// CreateAccount handles creating an account.
// POST /api/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), &domain.Account{
		LocationUID:       req.LocationUID,
		Status:            req.Status,
		EndDateUtc:        req.EndDateUtc,
		AccountType:       req.AccountType,
		PaymentAmount:     req.PaymentAmount,
		PendCancel:        req.PendCancel,
		PendCancelDateUtc: req.PendCancelDateUtc,
		PeriodStartUtc:    req.PeriodStartUtc.UTC(),
		PeriodEndUtc:      req.PeriodEndUtc.UTC(),
		NextBillingUtc:    req.NextBillingUtc.UTC(),
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, account)
}

// UpdateAccount handles moving an account to another location.
// PUT /api/accounts
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	account, err := h.accounts.UpdateAccountLocation(r.Context(), req.Guid, req.LocationUID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, account)
}

// DeleteAccount handles deleting an account and its members.
// DELETE /api/accounts/{id} where id is the account uid
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := uidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), uid); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccountMembers returns the personal details of an account's members.
// GET /api/accounts/{id}/members where id is the account guid
func (h *AccountHandler) ListAccountMembers(w http.ResponseWriter, r *http.Request) {
	guid, err := guidParam(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	persons, err := h.members.ListAccountMembers(r.Context(), guid)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewListResponse(persons))
}
