package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteEnvironmentReading mirrors an environment reading to InfluxDB.
// SQLite remains the source of truth; points are batched and sent
// asynchronously, and nil sensor values are skipped.
func (c *Client) WriteEnvironmentReading(serialNumber string, lux, temperature, humidity *float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{})
	if lux != nil {
		fields["lux"] = *lux
	}
	if temperature != nil {
		fields["temperature"] = *temperature
	}
	if humidity != nil {
		fields["humidity"] = *humidity
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"environment",
		map[string]string{
			"serial_number": serialNumber,
		},
		fields,
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceStatus records an online/offline transition for a device.
func (c *Client) WriteDeviceStatus(serialNumber string, online bool) {
	if !c.IsConnected() {
		return
	}

	onlineValue := 0
	if online {
		onlineValue = 1
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"serial_number": serialNumber,
		},
		map[string]interface{}{
			"online": onlineValue,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
