package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/finchley-audio/auriga-core/internal/adapter"
	"github.com/finchley-audio/auriga-core/internal/adapter/assetupnp"
	"github.com/finchley-audio/auriga-core/internal/adapter/streammagic"
	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/resolve"
)

// Logger defines the logging interface used by the Orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registries bundles the per-role adapter registries.
type Registries struct {
	Streamers    *adapter.Registry[adapter.Streamer]
	MediaServers *adapter.Registry[adapter.MediaServer]
	Amplifiers   *adapter.Registry[adapter.Amplifier]
}

// DefaultRegistries returns registries populated with every built-in
// adapter implementation.
func DefaultRegistries() Registries {
	r := Registries{
		Streamers:    adapter.NewRegistry[adapter.Streamer](),
		MediaServers: adapter.NewRegistry[adapter.MediaServer](),
		Amplifiers:   adapter.NewRegistry[adapter.Amplifier](),
	}

	r.Streamers.Register(streammagic.StreamerType,
		func(dev device.Descriptor, opts adapter.Options) (adapter.Streamer, error) {
			return streammagic.NewStreamer(dev, opts)
		}, streammagic.StreamerModels...)

	r.Amplifiers.Register(streammagic.AmplifierType,
		func(dev device.Descriptor, opts adapter.Options) (adapter.Amplifier, error) {
			return streammagic.NewAmplifier(dev, opts)
		}, streammagic.AmplifierModels...)

	r.MediaServers.Register(assetupnp.MediaServerType,
		func(dev device.Descriptor, opts adapter.Options) (adapter.MediaServer, error) {
			return assetupnp.NewMediaServer(dev, opts)
		}, assetupnp.MediaServerModels...)

	return r
}

// RoleBinding configures how one role is resolved and bound.
type RoleBinding struct {
	// Hint is passed to the resolver: empty for auto-discovery, a URL,
	// a bare host, or a friendly name.
	Hint string

	// Type forces an adapter type name, bypassing model lookup.
	Type string
}

// Config selects the devices the orchestrator composes.
type Config struct {
	Streamer    RoleBinding
	MediaServer RoleBinding
	Amplifier   RoleBinding
}

// Options carries the orchestrator's optional collaborators.
type Options struct {
	Logger          Logger
	EventSubscriber adapter.EventSubscriber
}

// UpdateFunc receives the aggregated system state after every change.
// It is invoked from adapter worker goroutines and must not block or
// re-enter command methods; hand further I/O off asynchronously.
type UpdateFunc func(state SystemState)

// DeviceUpdateFunc receives each per-device snapshot as it arrives, with
// the role it belongs to and the channel it came in on.
type DeviceUpdateFunc func(role device.Role, source string, state *device.State)

// Orchestrator composes one streamer (mandatory), one media server and
// one amplifier (both optional) behind role-neutral operations. Transport
// faults surface uniformly as *ProtocolFault.
type Orchestrator struct {
	streamer adapter.Streamer
	media    adapter.MediaServer
	amp      adapter.Amplifier
	logger   Logger

	mu          sync.RWMutex
	subscribers []UpdateFunc
	deviceSubs  []DeviceUpdateFunc
}

// New resolves, binds and wires the configured devices.
//
// The streamer role is mandatory: any resolution or binding failure
// aborts construction. Media server and amplifier failures degrade to
// "role absent" with a logged warning.
func New(ctx context.Context, resolver *resolve.Resolver, registries Registries, cfg Config, opts Options) (*Orchestrator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	o := &Orchestrator{logger: logger}

	streamerDev, err := resolver.Streamer(ctx, cfg.Streamer.Hint)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving streamer: %w", ErrConstruction, err)
	}

	o.streamer, err = registries.Streamers.Bind(streamerDev, cfg.Streamer.Type, adapter.Options{
		Logger:          logger,
		OnUpdate:        o.deviceUpdateHandler(device.RoleStreamer),
		EventSubscriber: opts.EventSubscriber,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: binding streamer %q: %w", ErrConstruction, streamerDev.FriendlyName, err)
	}
	logger.Info("streamer bound",
		"device", streamerDev.FriendlyName, "model", streamerDev.ModelName)

	o.bindMediaServer(ctx, resolver, registries, cfg, streamerDev)
	o.bindAmplifier(ctx, resolver, registries, cfg, streamerDev)

	if o.media != nil {
		o.streamer.RegisterMediaSource(o.media.Device().UDN)
	}
	if err := o.streamer.Subscribe(ctx); err != nil {
		logger.Warn("event subscriptions unavailable", "error", err)
	}

	return o, nil
}

// bindMediaServer resolves and binds the optional media server role.
// Every failure degrades to "no media server".
func (o *Orchestrator) bindMediaServer(ctx context.Context, resolver *resolve.Resolver, registries Registries, cfg Config, streamerDev device.Descriptor) {
	dev, err := resolver.MediaServer(ctx, cfg.MediaServer.Hint, streamerDev)
	if err != nil {
		o.logger.Warn("media server resolution failed, continuing without one", "error", err)
		return
	}
	if dev == nil {
		return
	}

	var cd adapter.ContentDirectory
	if dev.ContentDirectoryURL != "" {
		cd = assetupnp.NewSOAPContentDirectory(dev.ContentDirectoryURL)
	}
	media, err := registries.MediaServers.Bind(*dev, cfg.MediaServer.Type, adapter.Options{
		Logger:           o.logger,
		ContentDirectory: cd,
	})
	if err != nil {
		o.logger.Warn("media server binding failed, continuing without one",
			"device", dev.FriendlyName, "error", err)
		return
	}

	o.media = media
	o.logger.Info("media server bound", "device", dev.FriendlyName, "model", dev.ModelName)
}

// bindAmplifier resolves and binds the optional amplifier role. Every
// failure degrades to "no amplifier".
func (o *Orchestrator) bindAmplifier(ctx context.Context, resolver *resolve.Resolver, registries Registries, cfg Config, streamerDev device.Descriptor) {
	dev, err := resolver.Amplifier(ctx, cfg.Amplifier.Hint, streamerDev)
	if err != nil {
		o.logger.Warn("amplifier resolution failed, continuing without one", "error", err)
		return
	}
	if dev == nil {
		return
	}

	amp, err := registries.Amplifiers.Bind(*dev, cfg.Amplifier.Type, adapter.Options{
		Logger:   o.logger,
		OnUpdate: o.deviceUpdateHandler(device.RoleAmplifier),
	})
	if err != nil {
		o.logger.Warn("amplifier binding failed, continuing without one",
			"device", dev.FriendlyName, "error", err)
		return
	}

	o.amp = amp
	o.logger.Info("amplifier bound", "device", dev.FriendlyName, "model", dev.ModelName)
}

// Streamer exposes the bound streamer adapter.
func (o *Orchestrator) Streamer() adapter.Streamer {
	return o.streamer
}

// MediaServer exposes the bound media server adapter, nil when absent.
func (o *Orchestrator) MediaServer() adapter.MediaServer {
	return o.media
}

// Amplifier exposes the bound amplifier adapter, nil when absent.
func (o *Orchestrator) Amplifier() adapter.Amplifier {
	return o.amp
}

// Transport verbs. Each routes to the streamer and wraps any failure as a
// *ProtocolFault naming the operation.

func (o *Orchestrator) Play(ctx context.Context) error {
	return fault("play", o.streamer.Play(ctx))
}

func (o *Orchestrator) Pause(ctx context.Context) error {
	return fault("pause", o.streamer.Pause(ctx))
}

func (o *Orchestrator) Stop(ctx context.Context) error {
	return fault("stop", o.streamer.Stop(ctx))
}

func (o *Orchestrator) Next(ctx context.Context) error {
	return fault("next", o.streamer.Next(ctx))
}

func (o *Orchestrator) Previous(ctx context.Context) error {
	return fault("previous", o.streamer.Previous(ctx))
}

func (o *Orchestrator) Seek(ctx context.Context, position int) error {
	return fault("seek", o.streamer.Seek(ctx, position))
}

func (o *Orchestrator) TogglePlayback(ctx context.Context) error {
	return fault("toggle_playback", o.streamer.TogglePlayback(ctx))
}

func (o *Orchestrator) SetRepeat(ctx context.Context, enabled bool) error {
	return fault("set_repeat", o.streamer.SetRepeat(ctx, enabled))
}

func (o *Orchestrator) SetShuffle(ctx context.Context, enabled bool) error {
	return fault("set_shuffle", o.streamer.SetShuffle(ctx, enabled))
}

// PlayID resolves a media server browse identifier into playable metadata
// and hands it to the streamer.
func (o *Orchestrator) PlayID(ctx context.Context, id string) error {
	if o.media == nil {
		return ErrNoMediaServer
	}

	metadata, err := o.media.Metadata(ctx, id)
	if err != nil {
		return fault("play_id", err)
	}
	return fault("play_id", o.streamer.PlayMetadata(ctx, metadata))
}

// ModifyPlaylist resolves a media server browse identifier and applies
// it to the streamer's active playlist with the given action.
func (o *Orchestrator) ModifyPlaylist(ctx context.Context, id string, action adapter.PlaylistAction, insertIndex int) error {
	if o.media == nil {
		return ErrNoMediaServer
	}

	metadata, err := o.media.Metadata(ctx, id)
	if err != nil {
		return fault("modify_playlist", err)
	}
	return fault("modify_playlist", o.streamer.ModifyPlaylist(ctx, metadata, action, insertIndex))
}

// Volume commands route to the amplifier when one is bound; without an
// amplifier they are silent no-ops, matching the capability-gating
// contract.

func (o *Orchestrator) SetVolume(ctx context.Context, volume float64) error {
	if o.amp == nil {
		return nil
	}
	return fault("set_volume", o.amp.SetVolume(ctx, volume))
}

func (o *Orchestrator) VolumeUp(ctx context.Context) error {
	if o.amp == nil {
		return nil
	}
	return fault("volume_up", o.amp.VolumeUp(ctx))
}

func (o *Orchestrator) VolumeDown(ctx context.Context) error {
	if o.amp == nil {
		return nil
	}
	return fault("volume_down", o.amp.VolumeDown(ctx))
}

func (o *Orchestrator) SetMute(ctx context.Context, muted bool) error {
	if o.amp == nil {
		return nil
	}
	return fault("set_mute", o.amp.SetMute(ctx, muted))
}

func (o *Orchestrator) MuteToggle(ctx context.Context) error {
	if o.amp == nil {
		return nil
	}
	return fault("mute_toggle", o.amp.MuteToggle(ctx))
}

// HandleEvent is the single inbound entrypoint for protocol events. The
// event is delivered to the streamer only when it holds an active
// subscription naming the service; afterwards aggregated state is pushed
// to every subscriber.
func (o *Orchestrator) HandleEvent(service, payload string) {
	if _, ok := o.streamer.Subscriptions()[service]; !ok {
		o.logger.Debug("dropping event for unsubscribed service", "service", service)
		return
	}
	o.streamer.HandleEvent(service, payload)
}

// OnUpdate registers a subscriber for aggregated system state changes.
func (o *Orchestrator) OnUpdate(fn UpdateFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

// OnDeviceUpdate registers a subscriber for raw per-device snapshots.
func (o *Orchestrator) OnDeviceUpdate(fn DeviceUpdateFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deviceSubs = append(o.deviceSubs, fn)
}

// State aggregates the current canonical snapshots and vendor passthrough.
func (o *Orchestrator) State() SystemState {
	state := SystemState{
		StreamerName: o.streamer.Device().FriendlyName,
		Streamer:     o.streamer.State(),
	}
	if o.media != nil {
		state.MediaServerName = o.media.Device().FriendlyName
	}
	if o.amp != nil {
		state.AmplifierName = o.amp.Device().FriendlyName
		state.Amplifier = o.amp.State()
	}
	if vendor := o.streamer.Vendor(); len(vendor) > 0 {
		state.Vendor = map[string]any{
			o.streamer.Device().FriendlyName: vendor,
		}
	}
	return state
}

// deviceUpdateHandler builds the per-role update callback handed to
// adapters. It fans the snapshot out to device subscribers, then
// recomputes aggregated state for system subscribers.
func (o *Orchestrator) deviceUpdateHandler(role device.Role) adapter.UpdateFunc {
	return func(source string, snapshot *device.State) {
		o.mu.RLock()
		deviceSubs := o.deviceSubs
		subscribers := o.subscribers
		o.mu.RUnlock()

		for _, fn := range deviceSubs {
			fn(role, source, snapshot)
		}

		if len(subscribers) == 0 {
			return
		}
		state := o.State()
		for _, fn := range subscribers {
			fn(state)
		}
	}
}

// Shutdown releases every bound adapter's resources.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.amp != nil {
		if err := o.amp.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := o.streamer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
