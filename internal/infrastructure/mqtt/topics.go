package mqtt

import (
	"fmt"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// Topic prefixes for the Auriga topic hierarchy.
//
// All state topics use the flat scheme: auriga/state/{role}
// where role is one of streamer, media_server or amplifier.
const (
	// TopicPrefix is the base for all Auriga topics.
	TopicPrefix = "auriga"

	// TopicPrefixState is the base for canonical state topics.
	TopicPrefixState = "auriga/state"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "auriga/system"
)

// Topics provides builders for Auriga MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceState(device.RoleAmplifier)
//	// Returns: "auriga/state/amplifier"
type Topics struct{}

// DeviceState returns the canonical state topic for one device role.
//
// Example: auriga/state/streamer
func (Topics) DeviceState(role device.Role) string {
	return fmt.Sprintf("%s/%s", TopicPrefixState, role)
}

// SystemState returns the topic carrying the aggregated system snapshot.
//
// Example: auriga/state/system
func (Topics) SystemState() string {
	return fmt.Sprintf("%s/system", TopicPrefixState)
}

// SystemStatus returns the online/offline status topic.
// The LWT message is published here on unexpected disconnect.
//
// Example: auriga/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceStates returns a pattern matching every per-role state topic.
//
// Pattern: auriga/state/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/+", TopicPrefixState)
}

// AllTopics returns a pattern matching all Auriga topics.
// Use with caution, this receives ALL traffic.
//
// Pattern: auriga/#
func (Topics) AllTopics() string {
	return "auriga/#"
}
