package device

import (
	"net/url"
	"strings"
)

// Descriptor is an immutable snapshot of one discovered network audio device.
// It is produced by a single discovery pass (or by fetching a device
// description directly) and is never mutated afterwards.
type Descriptor struct {
	// UDN is the device's Unique Device Name, including any "uuid:" prefix
	// as reported by the device description.
	UDN string `json:"udn"`

	// FriendlyName is the human-readable name reported by the device.
	FriendlyName string `json:"friendly_name"`

	// ModelName identifies the device model (e.g. "CXNv2", "Asset UPnP Server").
	// Adapter implementations are selected by model name.
	ModelName string `json:"model_name"`

	// Manufacturer is the vendor name (e.g. "Cambridge Audio").
	Manufacturer string `json:"manufacturer"`

	// DeviceTypes holds the UPnP device type URNs for the root device and
	// any embedded devices (e.g. "urn:schemas-upnp-org:device:MediaRenderer:1").
	DeviceTypes []string `json:"device_types"`

	// Location is the URL the device description was fetched from.
	Location string `json:"location"`

	// ContentDirectoryURL is the control endpoint of the device's
	// ContentDirectory service, if it exposes one.
	ContentDirectoryURL string `json:"content_directory_url,omitempty"`
}

// Device type tag fragments matched against DeviceTypes entries.
const (
	// DeviceTypeRenderer marks playback-capable devices (streamers, amplifiers).
	DeviceTypeRenderer = "MediaRenderer"

	// DeviceTypeServer marks content-serving devices (media servers).
	DeviceTypeServer = "MediaServer"
)

// HasDeviceType reports whether any of the descriptor's device type URNs
// contains the given tag fragment (e.g. DeviceTypeRenderer).
func (d Descriptor) HasDeviceType(tag string) bool {
	for _, t := range d.DeviceTypes {
		if strings.Contains(t, tag) {
			return true
		}
	}
	return false
}

// ShortUDN returns the UDN without the "uuid:" prefix.
func (d Descriptor) ShortUDN() string {
	return strings.TrimPrefix(d.UDN, "uuid:")
}

// Hostname returns the host portion of the descriptor's location URL,
// or "" if the location cannot be parsed.
func (d Descriptor) Hostname() string {
	u, err := url.Parse(d.Location)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Equal reports whether two descriptors refer to the same device.
// Identity is defined by UDN alone; all other fields are presentation data.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.UDN == other.UDN
}

// Role is the functional position a device fills in the composed system.
type Role string

// Role constants.
const (
	RoleStreamer    Role = "streamer"
	RoleMediaServer Role = "media_server"
	RoleAmplifier   Role = "amplifier"
)

// AllRoles returns all valid role values.
func AllRoles() []Role {
	return []Role{RoleStreamer, RoleMediaServer, RoleAmplifier}
}

// Capability is one named controllable action a device currently supports.
// Commands test capability membership before dispatching; a command for an
// absent capability is a silent no-op.
type Capability string

// Volume and power capabilities.
const (
	CapVolume     Capability = "volume"
	CapMute       Capability = "mute"
	CapVolumeStep Capability = "volume_step"
	CapPower      Capability = "power"
)

// Transport capabilities (streamers).
const (
	CapPlay     Capability = "play"
	CapPause    Capability = "pause"
	CapStop     Capability = "stop"
	CapNext     Capability = "next"
	CapPrevious Capability = "previous"
	CapSeek     Capability = "seek"
	CapRepeat   Capability = "repeat"
	CapShuffle  Capability = "shuffle"
)

// AllCapabilities returns all valid capability values.
func AllCapabilities() []Capability {
	return []Capability{
		CapVolume, CapMute, CapVolumeStep, CapPower,
		CapPlay, CapPause, CapStop, CapNext, CapPrevious,
		CapSeek, CapRepeat, CapShuffle,
	}
}

// PowerState is a device's reported power state.
// The zero value means the state is unknown.
type PowerState string

// PowerState constants.
const (
	PowerUnknown PowerState = ""
	PowerOn      PowerState = "on"
	PowerOff     PowerState = "off"
)

// MuteState is a device's reported mute state.
// The zero value means the state is unknown.
type MuteState string

// MuteState constants.
const (
	MuteUnknown MuteState = ""
	MuteOn      MuteState = "on"
	MuteOff     MuteState = "off"
)

// State is the canonical, vendor-agnostic snapshot of a bound device.
//
// A State is replaced wholesale on every accepted inbound message - it is
// never patched field by field. The state-sync worker is the single writer;
// readers always receive a complete snapshot via Clone.
type State struct {
	// Name is the device's friendly name.
	Name string `json:"name"`

	// Capabilities enumerates the actions the device currently supports.
	// The set depends on the device's reported control mode and may change
	// between snapshots.
	Capabilities []Capability `json:"capabilities"`

	// Power is the reported power state ("" if unknown).
	Power PowerState `json:"power,omitempty"`

	// Mute is the reported mute state ("" if unknown).
	Mute MuteState `json:"mute,omitempty"`

	// Volume is the current volume as a fraction 0..1, or nil if the
	// device does not report an absolute volume in its current mode.
	Volume *float64 `json:"volume,omitempty"`

	// AudioSource is the currently selected input, if the device reports one.
	AudioSource string `json:"audio_source,omitempty"`
}

// HasCapability reports whether the capability is present in the snapshot.
func (s *State) HasCapability(c Capability) bool {
	if s == nil {
		return false
	}
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the snapshot. Modifications to the
// copy never affect the original, so snapshots can be handed to callers
// while the sync worker continues to publish replacements.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.Capabilities != nil {
		cpy.Capabilities = make([]Capability, len(s.Capabilities))
		copy(cpy.Capabilities, s.Capabilities)
	}
	if s.Volume != nil {
		v := *s.Volume
		cpy.Volume = &v
	}
	return &cpy
}
