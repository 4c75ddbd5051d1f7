package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

type HealthController struct {
	probes  map[string]Probe
	timeout time.Duration
}

func NewHealthController(probes map[string]Probe) *HealthController {
	return &HealthController{probes: probes, timeout: 2 * time.Second}
}

// Check answers 200 when every probe passes and 503 otherwise.
func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := c.probes[name](ctx); err != nil {
			healthy = false
			checks[name] = "down"
			logger.WithCtx(ctx).Warn("health probe failed", "probe", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	response.Success(w, map[string]any{"status": "ok", "checks": checks})
}
