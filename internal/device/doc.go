// Package device manages the registry of hardware units and their types.
//
// Devices are keyed externally by serial number — the identity they report
// with over MQTT and the upload endpoints — and internally by a numeric ID.
// Status check-ins flip the online flag and record the reporting firmware.
package device
