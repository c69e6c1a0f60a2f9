// Package influxdb provides an optional time-series mirror for sensor data.
//
// SQLite is the system of record for environment readings; when enabled,
// this package copies each reading into InfluxDB for dashboarding and
// long-range trend queries. Writes are non-blocking and batched, so a
// slow or unavailable InfluxDB never stalls telemetry ingest.
package influxdb
