package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/pkg/client"
)

// sampleBatch is sent when no -file is given.
const sampleBatch = `{
	"name": "Amoxicillin 500mg",
	"batchNumber": "B-1042",
	"expiryDate": "2026-01-31",
	"chemical_stability": 0.9,
	"contamination_level": 0.02,
	"ph_level": 6.5,
	"sterility_index": 0.97,
	"temperature_exposure": 0.1,
	"moisture_content": 0.05
}`

func main() {
	var (
		transport = flag.String("transport", "http", "Transport to use (http, nats)")
		baseURL   = flag.String("url", "http://127.0.0.1:8000", "Service base URL for the http transport")
		natsURL   = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL for the nats transport")
		subject   = flag.String("subject", "quality.analyze", "NATS analyze subject")
		health    = flag.String("health-subject", "quality.health", "NATS health subject")
		timeout   = flag.Duration("timeout", 60*time.Second, "Request timeout")
		file      = flag.String("file", "", "JSON file with the batch to analyze (default: built-in sample)")
		interval  = flag.Duration("interval", 5*time.Second, "Polling interval for the watch command")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] analyze|results|health|watch\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "analyze"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	c, err := newClient(*transport, *baseURL, *natsURL, *subject, *health, *timeout)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "analyze":
		sample, err := loadSample(*file)
		if err != nil {
			log.Fatalf("Failed to read batch: %v", err)
		}
		start := time.Now()
		verdict, err := c.Analyze(ctx, sample)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		fmt.Printf("Result:      %s\n", verdict.Result)
		fmt.Printf("Confidence:  %.2f\n", verdict.Confidence)
		if verdict.Explanation != "" {
			fmt.Printf("Explanation: %s\n", verdict.Explanation)
		}
		fmt.Printf("Took:        %v\n", time.Since(start).Round(time.Millisecond))

	case "results":
		rows, err := c.Results(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch results: %v", err)
		}
		out, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(out))

	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		fmt.Printf("%s: %s\n", h.Service, h.Status)

	case "watch":
		watch(ctx, c, *interval)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func newClient(transport, baseURL, natsURL, subject, health string, timeout time.Duration) (client.QualityClient, error) {
	switch strings.ToLower(transport) {
	case "http":
		return client.NewHTTPClient(baseURL, timeout), nil
	case "nats":
		return client.NewNATSClient(natsURL, client.NATSOptions{
			AnalyzeSubject: subject,
			HealthSubject:  health,
			Timeout:        timeout,
		})
	}
	return nil, fmt.Errorf("unknown transport %q", transport)
}

func loadSample(path string) (map[string]any, error) {
	data := []byte(sampleBatch)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	// Numbers keep their text so the service records them as written.
	sample, err := models.DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sample, nil
}

// watch polls health until interrupted, printing state changes and round-trip times.
func watch(ctx context.Context, c client.QualityClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		start := time.Now()
		state := "down"
		h, err := c.Health(ctx)
		if err == nil {
			state = h.Status
		}
		rtt := time.Since(start).Round(time.Millisecond)
		if state != last {
			if err != nil {
				fmt.Printf("%s  %-4s  %v\n", time.Now().Format("15:04:05"), state, err)
			} else {
				fmt.Printf("%s  %-4s  %s (rtt %v)\n", time.Now().Format("15:04:05"), state, h.Service, rtt)
			}
			last = state
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
