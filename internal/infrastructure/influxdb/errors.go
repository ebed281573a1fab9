package influxdb

import "errors"

// Sentinel errors for the reading telemetry sink.
var (
	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed wraps a failed ping at Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps batch write errors delivered to SetOnError.
	// A failed write never blocks or fails the dashboard.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// Callers treat it as "no telemetry sink", not as a failure.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
