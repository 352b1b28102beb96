package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime       float64          `json:"uptime_seconds"`
	Applications map[string]int64 `json:"applications"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime:       time.Since(g.startedAt).Truncate(time.Second).Seconds(),
			Applications: map[string]int64{},
		}

		if g.apps != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if counts, err := g.apps.CountByStatus(ctx); err == nil {
				for status, n := range counts {
					resp.Applications[string(status)] = n
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
