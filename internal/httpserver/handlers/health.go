package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/user/bmvault/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Version       string                     `json:"version,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	GoVersion     string                     `json:"go_version,omitempty"`
	Components    map[string]componentStatus `json:"components"`
}

// Health reports 200 while the store answers, 503 otherwise. A failing
// session store is reported as degraded.
func Health(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:        "ok",
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			GoVersion:     d.GoVersion,
			Components:    map[string]componentStatus{},
		}
		status := http.StatusOK

		resp.Components["store"] = probe(ctx, d.Store)
		if !resp.Components["store"].OK {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if d.SessionStore != nil {
			resp.Components["sessions"] = probe(ctx, d.SessionStore)
			if !resp.Components["sessions"].OK && status == http.StatusOK {
				resp.Status = "degraded"
			}
		}

		writeJSON(w, status, resp)
	}
}

func probe(ctx context.Context, p deps.Pinger) componentStatus {
	if p == nil {
		return componentStatus{OK: false, Error: "not configured"}
	}
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}
