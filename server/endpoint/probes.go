// Package endpoint serves the operational probes mounted next to the
// transcription API.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/version"
)

var startTime = time.Now()

// HealthChecker collects the health of the running components.
type HealthChecker func(ctx context.Context) []component.Health

type probe struct {
	Status     string             `json:"status"`
	Service    string             `json:"service"`
	Version    string             `json:"version,omitempty"`
	Timestamp  string             `json:"timestamp,omitempty"`
	Uptime     string             `json:"uptime,omitempty"`
	Components []component.Health `json:"components,omitempty"`
}

func uptime() string {
	return time.Since(startTime).Round(time.Second).String()
}

func check(ctx context.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return nil
	}
	return checker(ctx)
}

// Health reports every component. Any unhealthy component makes it a 503;
// degraded ones (speech key missing, sync slots saturated) stay 200.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c.Request.Context(), checker)
		status := component.Overall(components)

		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, probe{
			Status:     string(status),
			Service:    serviceName,
			Version:    version.Get().Version,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: components,
		})
	}
}

// Readiness accepts traffic unless a component is unhealthy.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := probe{Status: "ready", Service: serviceName, Timestamp: time.Now().UTC().Format(time.RFC3339)}
		code := http.StatusOK
		if component.Overall(check(c.Request.Context(), checker)) == component.StatusUnhealthy {
			p.Status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, p)
	}
}

// Liveness only confirms the process answers HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, probe{Status: "alive", Service: serviceName, Uptime: uptime()})
	}
}

// Version reports build information.
func Version(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"is_release": v.IsRelease,
			"is_dirty":   v.IsDirty,
			"uptime":     uptime(),
		})
	}
}
