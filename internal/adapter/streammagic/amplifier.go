package streammagic

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/finchley-audio/auriga-core/internal/adapter"
	"github.com/finchley-audio/auriga-core/internal/device"
)

// AmplifierType is the explicit registry type name for this adapter.
const AmplifierType = "streammagic-amplifier"

// AmplifierModels are the model identifiers this adapter registers for.
var AmplifierModels = []string{"CXNv2", "CXN", "Evo 75", "Evo 150", "EDGE NQ"}

// updateSourceSMOIP names the persistent snapshot channel in update
// callbacks.
const updateSourceSMOIP = "smoip"

// subscribeZoneState is the one fixed message sent after every
// (re)connection to start full-snapshot pushes.
var subscribeZoneState = []byte(`{"path":"/zone/state","params":{"update":1}}`)

// Amplifier drives a StreamMagic device's volume section over SMOIP. A
// websocket channel pushes full state snapshots inbound; unary HTTP calls
// carry commands outbound. Commands never update state themselves: the
// device confirms every change through the next snapshot.
//
// The channel's worker goroutine is the only writer of the snapshot;
// State() returns copies.
type Amplifier struct {
	dev     device.Descriptor
	ctl     controlClient
	channel channel

	onUpdate adapter.UpdateFunc
	logger   adapter.Logger

	mu    sync.RWMutex
	state *device.State
}

var _ adapter.Amplifier = (*Amplifier)(nil)

// NewAmplifier binds a StreamMagic device as an amplifier and starts its
// state channel.
//
// Returns:
//   - *Amplifier: the bound adapter
//   - error: ErrNoLocation if the descriptor's location yields no host
func NewAmplifier(dev device.Descriptor, opts adapter.Options) (*Amplifier, error) {
	host := dev.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoLocation, dev.FriendlyName)
	}

	a := &Amplifier{
		dev:      dev,
		ctl:      newSMOIPClient(host),
		onUpdate: opts.OnUpdate,
		logger:   opts.Logger,
	}
	if a.onUpdate == nil {
		a.onUpdate = func(string, *device.State) {}
	}
	if a.logger == nil {
		a.logger = noopLogger{}
	}

	a.channel = newWebsocketChannel("ws://"+host+"/smoip", channelHooks{
		onMessage: a.handleStateMessage,
		onConnect: func() {
			if err := a.channel.Send(subscribeZoneState); err != nil {
				a.logger.Warn("zone state subscribe failed", "device", dev.FriendlyName, "error", err)
			}
			if opts.OnConnect != nil {
				opts.OnConnect()
			}
		},
		onDisconnect: func(err error) {
			if opts.OnDisconnect != nil {
				opts.OnDisconnect(err)
			}
		},
	}, a.logger)
	a.channel.Start()

	return a, nil
}

// Device returns the bound descriptor.
func (a *Amplifier) Device() device.Descriptor {
	return a.dev
}

// State returns a copy of the current snapshot, or nil before the first
// accepted message.
func (a *Amplifier) State() *device.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Clone()
}

// handleStateMessage translates one inbound frame. Accepted messages
// replace the whole snapshot and notify the update callback; anything
// untranslatable is dropped with the prior snapshot retained.
func (a *Amplifier) handleStateMessage(payload []byte) {
	next, err := translateZoneState(a.dev.FriendlyName, payload)
	if err != nil {
		a.logger.Warn("dropping state message", "device", a.dev.FriendlyName, "error", err)
		return
	}

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	a.onUpdate(updateSourceSMOIP, next.Clone())
}

// hasCapability reports whether the current snapshot advertises cap.
func (a *Amplifier) hasCapability(cap device.Capability) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.HasCapability(cap)
}

// SetVolume sets the volume as a fraction in [0, 1]. Silent no-op unless
// the volume capability is present.
func (a *Amplifier) SetVolume(ctx context.Context, volume float64) error {
	if !a.hasCapability(device.CapVolume) {
		return nil
	}
	percent := int(math.Round(volume * 100))
	return a.ctl.zoneState(ctx, "volume_percent", fmt.Sprintf("%d", percent))
}

// VolumeUp raises the volume one step. Silent no-op unless the
// volume-step capability is present.
func (a *Amplifier) VolumeUp(ctx context.Context) error {
	if !a.hasCapability(device.CapVolumeStep) {
		return nil
	}
	return a.ctl.zoneState(ctx, "volume_step_change", "1")
}

// VolumeDown lowers the volume one step. Silent no-op unless the
// volume-step capability is present.
func (a *Amplifier) VolumeDown(ctx context.Context) error {
	if !a.hasCapability(device.CapVolumeStep) {
		return nil
	}
	return a.ctl.zoneState(ctx, "volume_step_change", "-1")
}

// SetMute sets mute on or off. Silent no-op unless the mute capability is
// present.
func (a *Amplifier) SetMute(ctx context.Context, muted bool) error {
	if !a.hasCapability(device.CapMute) {
		return nil
	}
	return a.ctl.zoneState(ctx, "mute", fmt.Sprintf("%t", muted))
}

// MuteToggle flips mute based on the current snapshot. Silent no-op
// unless the mute capability is present.
func (a *Amplifier) MuteToggle(ctx context.Context) error {
	if !a.hasCapability(device.CapMute) {
		return nil
	}

	a.mu.RLock()
	muted := a.state != nil && a.state.Mute == device.MuteOn
	a.mu.RUnlock()

	return a.ctl.zoneState(ctx, "mute", fmt.Sprintf("%t", !muted))
}

// SetPower is a no-op: a StreamMagic device bound as an amplifier never
// advertises the power capability, the streamer role owns it.
func (a *Amplifier) SetPower(context.Context, bool) error {
	return nil
}

// PowerToggle is a no-op, see SetPower.
func (a *Amplifier) PowerToggle(context.Context) error {
	return nil
}

// SetAudioSource is a no-op: source selection belongs to the streamer role.
func (a *Amplifier) SetAudioSource(context.Context, string) error {
	return nil
}

// Shutdown closes the state channel.
func (a *Amplifier) Shutdown(context.Context) error {
	return a.channel.Close()
}
