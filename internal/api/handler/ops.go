// Package handler provides HTTP handlers for the weatherdeck API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/weatherdeck/weatherdeck/internal/api/models"
	"github.com/weatherdeck/weatherdeck/internal/api/response"
	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
)

// ProviderHealthSource reports the health of upstream providers.
type ProviderHealthSource interface {
	AllHealth() []*resilience.ProviderHealth
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers ProviderHealthSource
	sessions  SessionCounter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, providers ProviderHealthSource, sessions SessionCounter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
		sessions:  sessions,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is not ready while any provider circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.overall()

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if status == models.HealthStatusFail {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     h.overall(),
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.sessionSubsystem()},
		Providers:  make([]models.ProviderStatus, 0),
	}

	for _, p := range h.providerHealth() {
		status.Providers = append(status.Providers, toProviderStatus(p))
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providerHealth() []*resilience.ProviderHealth {
	if h.providers == nil {
		return nil
	}
	return h.providers.AllHealth()
}

// overall is FAIL if any circuit is open, DEGRADED if any is half-open.
func (h *OpsHandler) overall() models.HealthStatus {
	status := models.HealthStatusOK
	for _, p := range h.providerHealth() {
		switch {
		case p.IsUnhealthy():
			return models.HealthStatusFail
		case p.IsDegraded():
			status = models.HealthStatusDegraded
		}
	}
	return status
}

func (h *OpsHandler) sessionSubsystem() models.SubsystemStatus {
	sub := models.SubsystemStatus{Name: "sessions", Status: models.HealthStatusOK}
	if h.sessions != nil {
		detail := formatCount(h.sessions.Len(), "active session")
		sub.Detail = &detail
	}
	return sub
}

func toProviderStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     p.Name,
		Status:       models.HealthStatusOK,
		CircuitState: p.CircuitState.String(),
	}
	switch {
	case p.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case p.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}
	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}
	return ps
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
