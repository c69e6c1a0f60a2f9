// Package telemetry stores environment readings reported by devices.
//
// SQLite is the system of record; an optional mirror callback forwards
// each accepted reading to InfluxDB for dashboarding. Readings are
// ordered newest first with ID as the tie-breaker, so pagination is
// stable even when a batch shares one timestamp.
package telemetry
