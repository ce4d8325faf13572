// internal/api/handler/respond_test.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-service/internal/api/types"
	"membership-service/internal/util"
	"membership-service/pkg/db"
)

func TestRespondWithError_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		logged  bool
	}{
		{
			name:    "bad statement is a server error",
			err:     fmt.Errorf("list members: %w: near FROM: syntax error", db.ErrStatement),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
			logged:  true,
		},
		{
			name:    "invalid input",
			err:     fmt.Errorf("create member: %w", util.ErrInvalidInput),
			status:  http.StatusBadRequest,
			message: "create member: invalid input provided",
		},
		{
			name:    "missing row",
			err:     fmt.Errorf("get member: %w", util.ErrNotFound),
			status:  http.StatusNotFound,
			message: "Resource not found",
		},
		{
			name:    "invariant conflict",
			err:     fmt.Errorf("delete non-primary members: %w", util.ErrNoPrimaryMember),
			status:  http.StatusConflict,
			message: "delete non-primary members: account has no primary member",
		},
		{
			name:    "constraint",
			err:     fmt.Errorf("create account: %w", db.ErrConstraint),
			status:  http.StatusConflict,
			message: "Request conflicts with stored data",
		},
		{
			name:    "connection",
			err:     fmt.Errorf("open: %w", db.ErrConnection),
			status:  http.StatusServiceUnavailable,
			message: "Database unavailable",
			logged:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := responder{logger: zerolog.New(&logs)}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/members", nil)

			h.respondWithError(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body types.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
			if tt.logged {
				assert.Contains(t, logs.String(), tt.err.Error())
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}
