package portal

import (
	"net/http"
	"testing"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		soft        bool
		wantResult  domain.UpdateResult
		wantMessage string
		wantErr     string
	}{
		{
			name:        "known success message",
			status:      http.StatusOK,
			body:        `{"msg": "Plan updated successfully!"}`,
			wantResult:  domain.UpdateSuccess,
			wantMessage: "Plan updated successfully!",
		},
		{
			name:       "empty body is a silent no-op",
			status:     http.StatusOK,
			body:       "",
			wantResult: domain.UpdateNoChange,
		},
		{
			name:       "explicit success flag wins over status",
			status:     http.StatusBadRequest,
			body:       `{"success": true, "msg": "applied"}`,
			wantResult: domain.UpdateSuccess,
		},
		{
			name:    "explicit failure flag wins over 200",
			status:  http.StatusOK,
			body:    `{"success": false, "msg": "quota exceeded"}`,
			wantErr: "quota exceeded",
		},
		{
			name:       "CFS failure at 400 with soft success enabled",
			status:     http.StatusBadRequest,
			body:       `{"msg": "CFS plan upgrade failed. Please contact support."}`,
			soft:       true,
			wantResult: domain.UpdateSuccess,
		},
		{
			name:    "CFS failure at 400 without soft success",
			status:  http.StatusBadRequest,
			body:    `{"msg": "CFS plan upgrade failed. Please contact support."}`,
			wantErr: "CFS plan upgrade failed",
		},
		{
			name:    "CFS failure at 500 stays a failure even with soft success",
			status:  http.StatusInternalServerError,
			body:    `{"msg": "CFS plan upgrade failed. Please contact support."}`,
			soft:    true,
			wantErr: "CFS plan upgrade failed",
		},
		{
			name:    "unknown message on 200 is a rejection",
			status:  http.StatusOK,
			body:    `{"msg": "Domain is locked"}`,
			wantErr: "Domain is locked",
		},
		{
			name:    "non-JSON body surfaces verbatim",
			status:  http.StatusBadGateway,
			body:    "<html>Bad Gateway</html>",
			wantErr: "<html>Bad Gateway</html>",
		},
		{
			name:    "error status with empty body reports the status",
			status:  http.StatusForbidden,
			body:    "",
			wantErr: "portal returned status 403",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			outcome, err := classifyAck(tc.status, []byte(tc.body), tc.soft)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUpdateRejected)
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantResult, outcome.Result)
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, outcome.Message)
			}
		})
	}
}
