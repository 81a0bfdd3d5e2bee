package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/store"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/httpx"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database and the cipher
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	vaultsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	vaultsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	cipher *cryptox.Cipher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &vaultsdk.HealthChecks{
			Database: "ok",
			Cipher:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if cipher == nil {
			checks.Cipher = "error: no key loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := cipher.SelfTest(); err != nil {
			checks.Cipher = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, vaultsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
