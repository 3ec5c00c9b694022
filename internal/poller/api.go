package poller

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpalmerr/livesync/internal/record"
)

// HTTPError is returned when the endpoint answers with a non-200 status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Health is the decoded answer of the health query.
type Health struct {
	Status            string
	ELKHealthy        bool
	RealtimeSyncReady bool
	DataPrepKitReady  bool
}

// Stream is one record stream (logs or metrics) of a data response.
//
// Only the items are read; the server's own count is ignored in favour of
// len(Items).
type Stream struct {
	Items []record.Record `json:"items"`
}

// Summary is the server-side summary attached to a data response.
type Summary struct {
	TotalRecords int
	DataTypes    []string
}

// SyncInfo carries the server's polling hints. It is informational only.
type SyncInfo struct {
	NextUpdateInSeconds        int
	RecommendedPollingInterval string
}

// DataResponse is the decoded body of a data query.
//
// A nil stream means the server did not include it; callers must not create
// archive entries for absent streams.
type DataResponse struct {
	Timestamp    string
	RealtimeMode bool
	Data         struct {
		Logs    *Stream `json:"logs"`
		Metrics *Stream `json:"metrics"`
	}
	Summary  Summary
	SyncInfo *SyncInfo

	// Latency is the round-trip time of the request that produced this response.
	Latency time.Duration
}

// dataBody is the wire shape of a data response. Only the record streams
// are decoded strictly; display fields are coerced afterwards so a mistyped
// hint never costs a batch.
type dataBody struct {
	Timestamp    any `json:"timestamp"`
	RealtimeMode any `json:"realtime_mode"`
	Data         struct {
		Logs    *Stream `json:"logs"`
		Metrics *Stream `json:"metrics"`
	} `json:"data"`
	Summary  any `json:"summary"`
	SyncInfo any `json:"sync_info"`
}

func (b *dataBody) response() *DataResponse {
	data := &DataResponse{RealtimeMode: truthy(b.RealtimeMode)}
	data.Timestamp, _ = record.Scalar(b.Timestamp)
	data.Data.Logs = b.Data.Logs
	data.Data.Metrics = b.Data.Metrics

	summary := record.From(b.Summary)
	data.Summary = Summary{
		TotalRecords: summary.Int("total_records", 0),
		DataTypes:    summary.Strings("data_types"),
	}

	if info := record.From(b.SyncInfo); info != nil {
		data.SyncInfo = &SyncInfo{
			NextUpdateInSeconds:        info.Int("next_update_in_seconds", 0),
			RecommendedPollingInterval: info.String("recommended_polling_interval", ""),
		}
	}
	return data
}

// Logs returns the log items, or nil when the stream is absent.
func (d *DataResponse) Logs() []record.Record {
	if d.Data.Logs == nil {
		return nil
	}
	return d.Data.Logs.Items
}

// Metrics returns the metric items, or nil when the stream is absent.
func (d *DataResponse) Metrics() []record.Record {
	if d.Data.Metrics == nil {
		return nil
	}
	return d.Data.Metrics.Items
}

// RecordCount returns the number of log and metric items in the response.
func (d *DataResponse) RecordCount() int {
	return len(d.Logs()) + len(d.Metrics())
}

// APIConfig configures an [API].
type APIConfig struct {
	// Endpoint is the base URL of the data endpoint. Existing query
	// parameters are preserved.
	Endpoint string

	// HealthTimeout bounds the health query.
	HealthTimeout time.Duration

	// FetchTimeout bounds the data query.
	FetchTimeout time.Duration

	// Limit is passed as the limit query parameter.
	Limit int
}

// API issues the two queries the sync loop needs against a single endpoint.
type API struct {
	client *Client
	cfg    APIConfig
}

// NewAPI creates an [API] using client for transport.
func NewAPI(client *Client, cfg APIConfig) *API {
	return &API{client: client, cfg: cfg}
}

// HealthURL returns the URL of the health query.
func (a *API) HealthURL() (string, error) {
	return a.withQuery(map[string]string{"type": "health"})
}

// DataURL returns the URL of the data query for a lookback window of days.
func (a *API) DataURL(days float64) (string, error) {
	return a.withQuery(map[string]string{
		"type":     "both",
		"days":     FormatDays(days),
		"limit":    strconv.Itoa(a.cfg.Limit),
		"realtime": "true",
	})
}

// FormatDays renders days with the shortest exact decimal (0.5, 7, 0.1).
func FormatDays(days float64) string {
	return strconv.FormatFloat(days, 'f', -1, 64)
}

func (a *API) withQuery(params map[string]string) (string, error) {
	u, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Health queries the endpoint's health view.
//
// Any non-200 status is returned as an [*HTTPError]. The ready flags are read
// leniently: booleans, "true"/"ok"/"healthy" strings and 1 all count as set.
func (a *API) Health(ctx context.Context) (Health, error) {
	u, err := a.HealthURL()
	if err != nil {
		return Health{}, err
	}

	resp := a.client.Get(ctx, u, a.cfg.HealthTimeout)
	if resp.Error != nil {
		return Health{}, resp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return Health{}, &HTTPError{StatusCode: resp.StatusCode}
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return Health{}, fmt.Errorf("failed to decode health response: %w", err)
	}

	status, _ := raw["status"].(string)
	return Health{
		Status:            status,
		ELKHealthy:        truthy(raw["elk_healthy"]),
		RealtimeSyncReady: truthy(raw["realtime_sync_ready"]),
		DataPrepKitReady:  truthy(raw["data_prep_kit_ready"]),
	}, nil
}

// FetchData queries log and metric records for the last days.
//
// Any non-200 status is returned as an [*HTTPError]. A body that is not a
// JSON object, or whose record streams are not lists of objects, is returned
// as a decode error; summary and sync hints are read best-effort.
func (a *API) FetchData(ctx context.Context, days float64) (*DataResponse, error) {
	u, err := a.DataURL(days)
	if err != nil {
		return nil, err
	}

	resp := a.client.Get(ctx, u, a.cfg.FetchTimeout)
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()

	var body dataBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode data response: %w", err)
	}
	data := body.response()
	data.Latency = resp.Latency
	return data, nil
}

// truthy maps a loosely typed JSON value to a boolean.
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "ok", "yes", "healthy", "up", "1":
			return true
		}
	}
	return false
}
