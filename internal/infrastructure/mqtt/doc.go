// Package mqtt provides MQTT client connectivity for Home Server.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Home Server uses MQTT to reach devices in the field: actuator commands
// are published to topics the devices subscribe to, and server liveness
// is advertised on homeserver/system/status.
//
//	Home Server ↔ MQTT Broker ↔ ESP devices / actuators
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Relay a command to the servo actuator
//	client.PublishString("/actuators/sg90", "open", 1, false)
package mqtt
