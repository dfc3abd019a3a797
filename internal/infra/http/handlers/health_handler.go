package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports nil when a dependency is usable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	Checks    map[string]HealthCheck
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		Checks:    map[string]HealthCheck{},
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) WithDatabase(db *sqlx.DB) *HealthHandler {
	if db != nil {
		h.Checks["database"] = db.PingContext
	}
	return h
}

func (h *HealthHandler) WithRabbitMQ(conn *amqp.Connection) *HealthHandler {
	if conn != nil {
		h.Checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return h
}

func (h *HealthHandler) WithRedis(client *redis.Client) *HealthHandler {
	if client != nil {
		h.Checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return h
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	status := "healthy"
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			deps[name] = fmt.Sprintf("unhealthy: %v", err)
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
