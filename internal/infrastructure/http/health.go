package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yourusername/telegram-news-collector/internal/domain"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	client domain.TelegramClient
	db     *gorm.DB
	logger zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(client domain.TelegramClient, db *gorm.DB, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		client: client,
		db:     db,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler interface
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := h.checkComponents(ctx)
	status := h.determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}

	statusCode := http.StatusOK
	if status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logEvent := h.logger.Debug()
	if status != HealthStatusHealthy {
		logEvent = h.logger.Warn()
	}
	logEvent.
		Str("status", string(status)).
		Int("status_code", statusCode).
		Msg("Health check completed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health check response")
	}
}

// checkComponents checks health of the Telegram connection and database
func (h *HealthHandler) checkComponents(ctx context.Context) []ComponentHealth {
	components := make([]ComponentHealth, 0, 2)

	telegramHealthy := h.client.IsConnected()
	telegramMsg := ""
	if !telegramHealthy {
		telegramMsg = "Telegram client is not connected"
	}
	components = append(components, ComponentHealth{
		Name:    "telegram",
		Healthy: telegramHealthy,
		Message: telegramMsg,
	})

	dbHealthy := true
	dbMsg := ""
	if sqlDB, err := h.db.DB(); err != nil {
		dbHealthy, dbMsg = false, err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbHealthy, dbMsg = false, err.Error()
	}
	components = append(components, ComponentHealth{
		Name:    "database",
		Healthy: dbHealthy,
		Message: dbMsg,
	})

	return components
}

// determineOverallStatus determines overall health status based on component health
func (h *HealthHandler) determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}

	return HealthStatusUnhealthy
}
