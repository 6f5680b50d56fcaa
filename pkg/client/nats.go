package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// RequestIDHeader matches the header the service echoes on replies.
const RequestIDHeader = "Quality-Request-Id"

// NATSOptions names the subjects the service listens on.
type NATSOptions struct {
	AnalyzeSubject string
	HealthSubject  string
	Timeout        time.Duration
}

// NATSClient sends analyze and health requests over NATS request/reply.
// Results are only available over HTTP.
type NATSClient struct {
	conn *nats.Conn
	opts NATSOptions
}

func NewNATSClient(natsURL string, opts NATSOptions) (*NATSClient, error) {
	conn, err := nats.Connect(natsURL, nats.Name("quality-client"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newNATSClient(conn, opts), nil
}

func newNATSClient(conn *nats.Conn, opts NATSOptions) *NATSClient {
	if opts.AnalyzeSubject == "" {
		opts.AnalyzeSubject = "quality.analyze"
	}
	if opts.HealthSubject == "" {
		opts.HealthSubject = "quality.health"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &NATSClient{conn: conn, opts: opts}
}

func (c *NATSClient) Analyze(ctx context.Context, sample map[string]any) (*Verdict, error) {
	body, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqID := ulid.Make().String()
	data, err := c.request(ctx, c.opts.AnalyzeSubject, reqID, body)
	if err != nil {
		return nil, err
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != "" {
		return nil, &APIError{Status: eb.Status, Message: eb.Error}
	}
	var v Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &v, nil
}

func (c *NATSClient) Results(context.Context) ([]map[string]string, error) {
	return nil, ErrUnsupported
}

func (c *NATSClient) Health(ctx context.Context) (*HealthStatus, error) {
	data, err := c.request(ctx, c.opts.HealthSubject, ulid.Make().String(), nil)
	if err != nil {
		return nil, err
	}
	var h HealthStatus
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse health status: %w", err)
	}
	return &h, nil
}

func (c *NATSClient) Close() error {
	c.conn.Close()
	return nil
}

func (c *NATSClient) request(ctx context.Context, subject, reqID string, body []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	msg := nats.NewMsg(subject)
	msg.Header.Set(RequestIDHeader, reqID)
	msg.Data = body

	slog.Debug("Sending request", "subject", subject, "req_id", reqID)
	reply, err := c.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("request %s (req_id %s): %w", subject, reqID, err)
	}
	return reply.Data, nil
}
