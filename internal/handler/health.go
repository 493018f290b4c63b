package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bancalot/platform/internal/infra"
)

// HealthHandler reports unhealthy when any dependency fails its ping.
func HealthHandler(deps map[string]infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string, len(deps))
		healthy := true
		for name, p := range deps {
			if err := infra.HealthCheck(r.Context(), p); err != nil {
				checks[name] = err.Error()
				healthy = false
				continue
			}
			checks[name] = "ok"
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"checks": checks,
		})
	}
}
