package streammagic

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finchley-audio/auriga-core/internal/device"
)

const (
	// zoneStateMsgPath and zoneStateMsgType are the discriminators a
	// full-snapshot message must carry to be accepted.
	zoneStateMsgPath = "/zone/state"
	zoneStateMsgType = "update"

	// cbusModeAmplifier and cbusModeReceiver mark a device delegating
	// volume control over its control bus.
	cbusModeAmplifier = "amplifier"
	cbusModeReceiver  = "receiver"
)

// errTranslation marks an inbound state message that cannot be turned
// into a canonical snapshot. These are dropped and logged, never
// surfaced past the adapter.
var errTranslation = errors.New("streammagic: untranslatable state message")

// stateMessage is the envelope of one inbound full-snapshot message:
//
//	{ "path": "/zone/state", "type": "update", "params": { "data": { ... } } }
type stateMessage struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Params struct {
		Data zoneStateData `json:"data"`
	} `json:"params"`
}

// zoneStateData is the vendor snapshot body. Pointer fields distinguish
// "absent" from zero values.
type zoneStateData struct {
	Power         *bool  `json:"power"`
	PreAmpMode    bool   `json:"pre_amp_mode"`
	CBus          string `json:"cbus"`
	Mute          *bool  `json:"mute"`
	VolumePercent *int   `json:"volume_percent"`
	AudioSource   string `json:"source_id"`
}

// translateZoneState turns one inbound message into a canonical snapshot.
// Rules, in priority order:
//
//  1. pre_amp_mode: the device controls its own volume. Capabilities
//     {volume, mute, volume-step}; power, mute and volume (percent/100)
//     are all exposed.
//  2. cbus "amplifier"/"receiver": volume is delegated over the control
//     bus. Capabilities {volume-step}; mute and volume stay unknown.
//  3. otherwise: no volume path. Capabilities {}; only power is reported.
//
// Returns:
//   - *device.State: the new snapshot
//   - error: errTranslation-wrapped when the discriminators mismatch, the
//     payload fails to parse, or a branch's required fields are missing
func translateZoneState(name string, payload []byte) (*device.State, error) {
	var msg stateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", errTranslation, err)
	}

	if msg.Path != zoneStateMsgPath || msg.Type != zoneStateMsgType {
		return nil, fmt.Errorf("%w: unexpected discriminators path=%q type=%q",
			errTranslation, msg.Path, msg.Type)
	}

	data := msg.Params.Data
	if data.Power == nil {
		return nil, fmt.Errorf("%w: missing power field", errTranslation)
	}

	state := &device.State{
		Name:        name,
		Power:       powerState(*data.Power),
		AudioSource: data.AudioSource,
	}

	switch {
	case data.PreAmpMode:
		if data.Mute == nil || data.VolumePercent == nil {
			return nil, fmt.Errorf("%w: pre-amp snapshot missing mute or volume", errTranslation)
		}
		state.Capabilities = []device.Capability{
			device.CapVolume, device.CapMute, device.CapVolumeStep,
		}
		state.Mute = muteState(*data.Mute)
		volume := float64(*data.VolumePercent) / 100
		state.Volume = &volume

	case data.CBus == cbusModeAmplifier || data.CBus == cbusModeReceiver:
		state.Capabilities = []device.Capability{device.CapVolumeStep}

	default:
		state.Capabilities = []device.Capability{}
	}

	return state, nil
}

func powerState(on bool) device.PowerState {
	if on {
		return device.PowerOn
	}
	return device.PowerOff
}

func muteState(muted bool) device.MuteState {
	if muted {
		return device.MuteOn
	}
	return device.MuteOff
}
