package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthService reports liveness only; it checks no dependencies.
type HealthService struct {
	service string
}

func NewHealthService(serviceName string) *HealthService {
	return &HealthService{service: serviceName}
}

func (h *HealthService) Status() HealthStatus {
	return HealthStatus{Status: "ok", Service: h.service}
}

// Subscribe answers health requests on subject with the same payload as GET /health.
func (h *HealthService) Subscribe(conn *nats.Conn, subject string) (*nats.Subscription, error) {
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		data, err := json.Marshal(h.Status())
		if err != nil {
			slog.Error("Failed to marshal health status", "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Error("Failed to respond to health check", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to health subject: %w", err)
	}
	slog.Info("Health responder started", "subject", subject)
	return sub, nil
}
