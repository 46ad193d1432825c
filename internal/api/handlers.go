package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/control"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/metrics"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

const MAX_BODY_BYTES = 1 << 20

// ReadingStore is the part of the data layer the reading endpoints need.
type ReadingStore interface {
	LatestReading(ctx context.Context) (*models.ClassifiedReading, error)
	HistoricalReadings(ctx context.Context, hours int) ([]models.ClassifiedReading, error)
	Statistics(ctx context.Context, hours int) (*models.Statistics, error)
	InsertReading(ctx context.Context, reading models.SensorReading) (*models.ClassifiedReading, error)
}

type Handlers struct {
	Log      *slog.Logger
	Readings ReadingStore
	Control  *control.Service
	Now      func() time.Time
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type historicalResponse struct {
	Data  []models.ClassifiedReading `json:"data"`
	Count int                        `json:"count"`
	Hours int                        `json:"hours"`
}

type insertResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type controlStatusResponse struct {
	Fan   models.FanState `json:"fan"`
	Mode  models.Mode     `json:"mode"`
	Waktu time.Time       `json:"waktu"`
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(h.logger(), w, status, payload)
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "Smart Air Monitoring API is running",
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *Handlers) Latest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.Readings.LatestReading(r.Context())
	if err != nil {
		h.fail(w, r, "Error fetching latest data", err)
		return
	}

	h.writeJSON(w, http.StatusOK, reading)
}

func (h *Handlers) Historical(w http.ResponseWriter, r *http.Request) {
	hours := parseHours(r.URL.Query())

	readings, err := h.Readings.HistoricalReadings(r.Context(), hours)
	if err != nil {
		h.fail(w, r, "Error fetching historical data", err)
		return
	}

	h.writeJSON(w, http.StatusOK, historicalResponse{
		Data:  readings,
		Count: len(readings),
		Hours: hours,
	})
}

func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	statistics, err := h.Readings.Statistics(r.Context(), parseHours(r.URL.Query()))
	if err != nil {
		h.fail(w, r, "Error fetching statistics", err)
		return
	}

	h.writeJSON(w, http.StatusOK, statistics)
}

func (h *Handlers) InsertReading(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(r)
	if err != nil {
		h.fail(w, r, "Invalid sensor payload", err)
		return
	}

	reading, err := readingFromFields(fields)
	if err != nil {
		h.fail(w, r, "Invalid sensor payload", err)
		return
	}

	row, err := h.Readings.InsertReading(r.Context(), reading)
	if err != nil {
		h.fail(w, r, "Error inserting sensor data", err)
		return
	}

	metrics.ObserveReading(row.SensorReading)

	h.writeJSON(w, http.StatusOK, insertResponse[*models.ClassifiedReading]{
		Success: true,
		Data:    row,
		Message: "Data sensor berhasil disimpan",
	})
}

func (h *Handlers) ControlStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Control.Status(r.Context())
	if err != nil {
		h.fail(w, r, "Error fetching control status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, controlStatusResponse{
		Fan:   status.Fan,
		Mode:  status.Mode,
		Waktu: status.Waktu,
	})
}

func (h *Handlers) PostControl(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(r)
	if err != nil {
		h.fail(w, r, "Invalid control payload", err)
		return
	}

	req, err := controlRequestFromFields(fields)
	if err != nil {
		h.fail(w, r, "Invalid control payload", err)
		return
	}

	command, err := h.Control.Apply(r.Context(), req)
	if errors.Is(err, control.ErrNothingToApply) {
		err = validationError(MSG_CONTROL_FIELDS)
	}
	if err != nil {
		h.fail(w, r, "Error sending control command", err)
		return
	}

	metrics.ObserveControl(*command)

	h.writeJSON(w, http.StatusOK, insertResponse[*models.ControlCommand]{
		Success: true,
		Data:    command,
		Message: "Perintah kontrol berhasil dikirim",
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(h.logger(), w, routeNotFoundError())
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	apiErr := toError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger().Error(msg, "path", r.URL.Path, "error", err)
	} else {
		h.logger().Debug(msg, "path", r.URL.Path, "status", apiErr.Status, "error", apiErr.Message)
	}

	h.writeJSON(w, apiErr.Status, apiErr)
}

// decodeObject reads a JSON object body keeping every value raw, so that a
// missing key and an explicit null stay distinguishable. An empty body is
// an empty object.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MAX_BODY_BYTES))
	if err != nil {
		return nil, validationError(fmt.Sprintf("failed to read body: %v", err))
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, validationError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	return fields, nil
}

func readingFromFields(fields map[string]json.RawMessage) (models.SensorReading, error) {
	var missing []string
	for _, name := range []string{"co2", "co", "dust"} {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.SensorReading{}, validationError(fmt.Sprintf("%s (missing: %s)", MSG_READING_FIELDS, strings.Join(missing, ", ")))
	}

	var reading models.SensorReading
	var err error
	if reading.CO2, err = numberField("co2", fields["co2"]); err != nil {
		return models.SensorReading{}, err
	}
	if reading.CO, err = numberField("co", fields["co"]); err != nil {
		return models.SensorReading{}, err
	}
	if reading.Dust, err = numberField("dust", fields["dust"]); err != nil {
		return models.SensorReading{}, err
	}

	return reading, nil
}

// numberField accepts a JSON number or a numeric string. A null is kept as
// nil and left for the store to reject. Infinities and NaN are refused since
// they cannot be encoded back to JSON.
func numberField(name string, raw json.RawMessage) (*float64, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, validationError(fmt.Sprintf("%s must be a number", name))
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
			return nil, validationError(fmt.Sprintf("%s must be a finite number, got %q", name, v))
		}
		return &parsed, nil
	default:
		return nil, validationError(fmt.Sprintf("%s must be a number", name))
	}
}

func controlRequestFromFields(fields map[string]json.RawMessage) (control.Request, error) {
	var req control.Request

	fan, err := stringField("fan", fields["fan"])
	if err != nil {
		return req, err
	}
	if fan != "" {
		state, err := models.ParseFanState(fan)
		if err != nil {
			return req, validationError(err.Error())
		}
		req.Fan = &state
	}

	mode, err := stringField("mode", fields["mode"])
	if err != nil {
		return req, err
	}
	if mode != "" {
		parsed, err := models.ParseMode(mode)
		if err != nil {
			return req, validationError(err.Error())
		}
		req.Mode = &parsed
	}

	return req, nil
}

// stringField returns "" for a missing, null or empty value.
func stringField(name string, raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", nil
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", validationError(fmt.Sprintf("%s must be a string", name))
	}
	if value == nil {
		return "", nil
	}

	return *value, nil
}
