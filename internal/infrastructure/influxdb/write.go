package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// WriteDeviceState writes one canonical device snapshot to InfluxDB.
//
// This is the primary method for recording device telemetry. The write
// is non-blocking; points are batched and sent asynchronously.
//
// Tags carry role and device name (low cardinality); fields carry the
// snapshot values. Volume is only written when the device reports one.
//
// Example:
//
//	client.WriteDeviceState(device.RoleAmplifier, "Lounge Amp", state)
func (c *Client) WriteDeviceState(role device.Role, name string, state *device.State) {
	if !c.IsConnected() || state == nil {
		return
	}

	fields := map[string]interface{}{
		"power": string(state.Power),
		"mute":  string(state.Mute),
	}
	if state.Volume != nil {
		fields["volume"] = *state.Volume
	}
	if state.AudioSource != "" {
		fields["audio_source"] = state.AudioSource
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"role":   string(role),
			"device": name,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteUpdateCount records one accepted state update for rate tracking.
//
// Parameters:
//   - role: The device role the update applied to
//   - source: The transport the update arrived on (e.g. "smoip", "upnp")
func (c *Client) WriteUpdateCount(role device.Role, source string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_updates",
		map[string]string{
			"role":   string(role),
			"source": source,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
