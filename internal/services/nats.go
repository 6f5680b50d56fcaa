package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/aigoflow/quality-service/internal/config"
	"github.com/aigoflow/quality-service/internal/models"
)

// RequestIDHeader carries the caller's request id on NATS messages.
const RequestIDHeader = "Quality-Request-Id"

// ErrorReply is sent on the NATS analyze subject when analysis fails.
type ErrorReply struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// NATSService serves analyze and health requests over core NATS
// request/reply. Members of the queue group share the analyze load.
type NATSService struct {
	conn     *nats.Conn
	analysis *AnalysisService
	health   *HealthService
	cfg      *config.Config
	workerID string
}

func NewNATSService(cfg *config.Config, analysis *AnalysisService, health *HealthService) (*NATSService, error) {
	conn, err := nats.Connect(cfg.NatsURL, nats.Name(cfg.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newNATSService(conn, cfg, analysis, health), nil
}

func newNATSService(conn *nats.Conn, cfg *config.Config, analysis *AnalysisService, health *HealthService) *NATSService {
	return &NATSService{
		conn:     conn,
		analysis: analysis,
		health:   health,
		cfg:      cfg,
		workerID: "worker-" + ulid.Make().String(),
	}
}

// Start subscribes and blocks until ctx is cancelled. It then drains the
// connection and returns once every pending request has been answered and
// the connection is closed.
func (s *NATSService) Start(ctx context.Context) error {
	closed := make(chan struct{})
	s.conn.SetClosedHandler(func(*nats.Conn) { close(closed) })

	if _, err := s.health.Subscribe(s.conn, s.cfg.NatsHealthSubject); err != nil {
		s.conn.Close()
		return err
	}
	// Requests still queued at shutdown are processed during the drain.
	handlerCtx := context.WithoutCancel(ctx)
	_, err := s.conn.QueueSubscribe(s.cfg.NatsSubject, s.cfg.NatsQueueGroup, func(msg *nats.Msg) {
		s.processMessage(handlerCtx, msg)
	})
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.NatsSubject, err)
	}

	slog.Info("NATS service started",
		"subject", s.cfg.NatsSubject,
		"queue_group", s.cfg.NatsQueueGroup,
		"worker_id", s.workerID)

	<-ctx.Done()
	slog.Info("NATS service shutting down", "worker_id", s.workerID)
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	<-closed
	slog.Info("NATS service stopped", "worker_id", s.workerID)
	return nil
}

func (s *NATSService) processMessage(ctx context.Context, msg *nats.Msg) {
	start := time.Now()
	reqID := ""
	if msg.Header != nil {
		reqID = msg.Header.Get(RequestIDHeader)
	}

	data, status := s.handle(ctx, msg.Subject, msg.Data)

	if msg.Reply == "" {
		slog.Warn("Analyze request without reply subject", "worker_id", s.workerID, "req_id", reqID)
		return
	}
	reply := nats.NewMsg(msg.Reply)
	reply.Data = data
	if reqID != "" {
		reply.Header.Set(RequestIDHeader, reqID)
	}
	if err := msg.RespondMsg(reply); err != nil {
		slog.Error("Failed to publish response",
			"worker_id", s.workerID,
			"req_id", reqID,
			"error", err)
		return
	}

	slog.Debug("NATS analyze handled",
		"worker_id", s.workerID,
		"req_id", reqID,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())
}

// handle runs one analyze payload and returns the reply body with its status.
func (s *NATSService) handle(ctx context.Context, subject string, body []byte) ([]byte, int) {
	var (
		reply  any
		status = 200
	)
	payload, err := models.DecodePayload(body)
	if err == nil {
		var v models.Verdict
		v, err = s.analysis.Analyze(ctx, payload, "nats."+subject)
		reply = v
	}
	if err != nil {
		status = StatusCode(err)
		reply = ErrorReply{Error: err.Error(), Status: status}
	}

	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("Failed to marshal response", "worker_id", s.workerID, "error", err)
		data, _ = json.Marshal(ErrorReply{Error: "internal error", Status: 500})
		status = 500
	}
	return data, status
}
