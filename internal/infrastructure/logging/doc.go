// Package logging provides structured logging for Home Server.
//
// It wraps log/slog with configuration-driven level and format selection,
// and adds default fields (service name, version) to every record.
package logging
