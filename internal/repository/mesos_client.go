package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clusterops/mesosctl/internal/config"
	"github.com/clusterops/mesosctl/internal/model"
	"github.com/clusterops/mesosctl/internal/util"
)

// MesosRepository defines the interface for Mesos maintenance API operations
type MesosRepository interface {
	GetSchedule(ctx context.Context) (*model.Schedule, error)
	PostSchedule(ctx context.Context, schedule *model.Schedule) error
	GetStatus(ctx context.Context) (*model.ClusterStatus, error)
	MachineDown(ctx context.Context, id model.MachineID) error
	MachineUp(ctx context.Context, id model.MachineID) error
}

// APIError is a non-2xx response from the master, surfaced verbatim so the
// operator sees exactly what the API said.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("master returned status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("master returned status %d for %s: %s", e.StatusCode, e.URL, body)
}

// mesosRepository implements MesosRepository over plain HTTP
type mesosRepository struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewMesosRepository creates a client for the master's maintenance API.
// The maintenance endpoints have no SDK coverage, so requests are built
// directly against the HTTP API.
func NewMesosRepository(cfg config.MasterConfig, logger *slog.Logger) (MesosRepository, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.TLS != nil {
		tlsConfig, err := util.LoadTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS config: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
	}

	return &mesosRepository{
		baseURL:    strings.TrimRight(cfg.Address, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetSchedule fetches the full maintenance schedule document
func (r *mesosRepository) GetSchedule(ctx context.Context) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := r.do(ctx, http.MethodGet, "maintenance/schedule", nil, &schedule); err != nil {
		return nil, err
	}

	r.logger.Debug("fetched maintenance schedule",
		slog.Int("windows", len(schedule.Windows)),
	)

	return &schedule, nil
}

// PostSchedule replaces the master's maintenance schedule with the given
// document. The API has no per-window updates: this overwrites everything.
func (r *mesosRepository) PostSchedule(ctx context.Context, schedule *model.Schedule) error {
	if err := r.do(ctx, http.MethodPost, "maintenance/schedule", schedule, nil); err != nil {
		return err
	}

	r.logger.Debug("posted maintenance schedule",
		slog.Int("windows", len(schedule.Windows)),
	)

	return nil
}

// GetStatus fetches the cluster maintenance status
func (r *mesosRepository) GetStatus(ctx context.Context) (*model.ClusterStatus, error) {
	var status model.ClusterStatus
	if err := r.do(ctx, http.MethodGet, "maintenance/status", nil, &status); err != nil {
		return nil, err
	}

	r.logger.Debug("fetched maintenance status",
		slog.Int("draining", len(status.DrainingMachines)),
		slog.Int("down", len(status.DownMachines)),
	)

	return &status, nil
}

// MachineDown marks the machine as down. The endpoint takes a list of
// machine IDs even for a single machine.
func (r *mesosRepository) MachineDown(ctx context.Context, id model.MachineID) error {
	return r.do(ctx, http.MethodPost, "machine/down", []model.MachineID{id}, nil)
}

// MachineUp marks the machine as up again
func (r *mesosRepository) MachineUp(ctx context.Context, id model.MachineID) error {
	return r.do(ctx, http.MethodPost, "machine/up", []model.MachineID{id}, nil)
}

// do issues one request against the master and decodes the response into
// out when out is non-nil. Non-2xx responses come back as *APIError with
// the body attached; nothing is retried.
func (r *mesosRepository) do(ctx context.Context, method, path string, body, out any) error {
	url := r.baseURL + "/" + path

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach master at %s: %w", url, err)
	}
	defer resp.Body.Close()

	r.logger.Debug("master request completed",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
