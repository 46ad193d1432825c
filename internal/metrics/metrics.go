package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "air_monitor_http_requests_total",
		Help: "HTTP requests served, by route template, method and status code",
	},
	[]string{"route", "method", "status"},
)

var HTTPDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "air_monitor_http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route template",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
	[]string{"route"},
)

var ReadingsIngested = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "air_monitor_readings_ingested_total",
		Help: "Sensor readings stored through the API",
	},
)

var CO2Histogram = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name: "air_monitor_co2_ppm",
		Help: "Distribution of ingested CO2 readings (ppm)",
		// Outdoor baseline ~400, stuffy rooms >1000, headaches >2000
		Buckets: []float64{400, 600, 800, 1000, 1500, 2000, 5000},
	},
)

var COHistogram = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "air_monitor_co_ppm",
		Help:    "Distribution of ingested CO readings (ppm)",
		Buckets: []float64{0, 9, 35, 50, 100, 200, 400},
	},
)

var DustHistogram = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "air_monitor_dust_ugm3",
		Help:    "Distribution of ingested dust readings (µg/m³)",
		Buckets: []float64{12, 35.5, 55.5, 150.5, 250.5, 500},
	},
)

var ControlCommands = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "air_monitor_control_commands_total",
		Help: "Control commands appended to the control log, by resolved state",
	},
	[]string{"fan", "mode"},
)

func ObserveRequest(route, method string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func ObserveReading(reading models.SensorReading) {
	ReadingsIngested.Inc()

	if reading.CO2 != nil {
		CO2Histogram.Observe(*reading.CO2)
	}
	if reading.CO != nil {
		COHistogram.Observe(*reading.CO)
	}
	if reading.Dust != nil {
		DustHistogram.Observe(*reading.Dust)
	}
}

func ObserveControl(command models.ControlCommand) {
	ControlCommands.WithLabelValues(string(command.Fan), string(command.Mode)).Inc()
}
