package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bulkinvite/pkg/httpx"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
)

// Pinger is the part of the store readiness needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker is the part of the stager readiness needs.
type Checker interface {
	Check() error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the job store and the staging directory
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	invitersdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	invitersdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st Pinger,
	stager Checker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &invitersdk.HealthChecks{
			Database: "ok",
			Staging:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Uploads are staged on disk before a job starts
		if err := stager.Check(); err != nil {
			checks.Staging = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := invitersdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
