package mqtt

import "fmt"

// Topic prefixes for Home Server MQTT traffic.
//
// Actuator command topics are deliberately NOT under this prefix: devices
// in the field subscribe to bare topics like /actuators/sg90, so those come
// from configuration rather than the builders below.
const (
	// TopicPrefixServer is the base for all server topics.
	TopicPrefixServer = "homeserver"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "homeserver/system"

	// TopicPrefixDevice is the base for device status topics.
	TopicPrefixDevice = "homeserver/device"
)

// Topics provides builders for Home Server MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// SystemStatus returns the system status topic.
//
// Example: homeserver/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// DeviceStatus returns the status topic for a device by serial number.
//
// Example: homeserver/device/SN-0042/status
func (Topics) DeviceStatus(serialNumber string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, serialNumber)
}

// AllDeviceStatuses returns a pattern matching all device status topics.
//
// Pattern: homeserver/device/+/status
func (Topics) AllDeviceStatuses() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}

// AllTopics returns a pattern matching all Home Server topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: homeserver/#
func (Topics) AllTopics() string {
	return "homeserver/#"
}
