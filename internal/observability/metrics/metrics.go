package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	AuthRequestsTotal      metric.Int64Counter
	BookUploadsTotal       metric.Int64Counter
	BookDownloadsTotal     metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("openshelf")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.BookUploadsTotal, err = meter.Int64Counter(
			"book_uploads_total",
			metric.WithDescription("Total number of book files uploaded"),
			metric.WithUnit("{upload}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create book_uploads_total: %v", err)
		}

		m.BookDownloadsTotal, err = meter.Int64Counter(
			"book_downloads_total",
			metric.WithDescription("Total number of book download redirects served"),
			metric.WithUnit("{download}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create book_downloads_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global instruments. InitAppMetrics must run first; a nil
// receiver here means the bootstrap sequence was skipped.
func Get() *AppMetrics {
	return appMetrics
}
