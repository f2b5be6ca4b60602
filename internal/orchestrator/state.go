package orchestrator

import "github.com/finchley-audio/auriga-core/internal/device"

// SystemState is the aggregated external view of the composed system:
// canonical cross-vendor fields plus an adapter-name-keyed passthrough of
// vendor-specific state, so new vendors surface without a schema change.
type SystemState struct {
	// StreamerName and Streamer describe the mandatory streamer role.
	StreamerName string        `json:"streamer_name"`
	Streamer     *device.State `json:"streamer,omitempty"`

	// MediaServerName is empty when no media server is bound.
	MediaServerName string `json:"media_server_name,omitempty"`

	// Amplifier is nil when no amplifier is bound or it has not yet
	// reported state.
	AmplifierName string        `json:"amplifier_name,omitempty"`
	Amplifier     *device.State `json:"amplifier,omitempty"`

	// Vendor carries unstructured vendor-specific state keyed by the
	// reporting adapter's device name.
	Vendor map[string]any `json:"vendor,omitempty"`
}
