package streammagic

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/finchley-audio/auriga-core/internal/adapter"
	"github.com/finchley-audio/auriga-core/internal/device"
)

// StreamerType is the explicit registry type name for this adapter.
const StreamerType = "streammagic-streamer"

// StreamerModels are the model identifiers this adapter registers for.
var StreamerModels = []string{"CXNv2", "CXN", "851N", "EDGE NQ"}

// updateSourceUPnP names the event-subscription channel in update
// callbacks.
const updateSourceUPnP = "upnp"

// eventServices is the fixed service set the streamer subscribes to.
var eventServices = []string{"AVTransport", "RenderingControl", "PlaylistExtension"}

// transportCapabilities is what every StreamMagic streamer can do
// regardless of its volume mode.
var transportCapabilities = []device.Capability{
	device.CapPower, device.CapPlay, device.CapPause, device.CapStop,
	device.CapNext, device.CapPrevious, device.CapSeek,
	device.CapRepeat, device.CapShuffle,
}

// Streamer drives a StreamMagic network player over SMOIP. Full state
// snapshots arrive on a persistent websocket channel; protocol events
// arrive through an external subscription collaborator and land in the
// vendor passthrough map. Commands are unary fire-and-forget HTTP calls.
type Streamer struct {
	dev     device.Descriptor
	ctl     controlClient
	channel channel

	subscriber adapter.EventSubscriber
	onUpdate   adapter.UpdateFunc
	logger     adapter.Logger

	mu             sync.RWMutex
	state          *device.State
	subs           map[string]string
	vendor         map[string]any
	mediaSourceUDN string
}

var _ adapter.Streamer = (*Streamer)(nil)

// NewStreamer binds a StreamMagic device as a streamer and starts its
// state channel.
//
// Returns:
//   - *Streamer: the bound adapter
//   - error: ErrNoLocation if the descriptor's location yields no host
func NewStreamer(dev device.Descriptor, opts adapter.Options) (*Streamer, error) {
	host := dev.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoLocation, dev.FriendlyName)
	}

	s := &Streamer{
		dev:        dev,
		ctl:        newSMOIPClient(host),
		subscriber: opts.EventSubscriber,
		onUpdate:   opts.OnUpdate,
		logger:     opts.Logger,
		subs:       make(map[string]string),
		vendor:     make(map[string]any),
	}
	if s.onUpdate == nil {
		s.onUpdate = func(string, *device.State) {}
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}

	s.channel = newWebsocketChannel("ws://"+host+"/smoip", channelHooks{
		onMessage: s.handleStateMessage,
		onConnect: func() {
			if err := s.channel.Send(subscribeZoneState); err != nil {
				s.logger.Warn("zone state subscribe failed", "device", dev.FriendlyName, "error", err)
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
	}, s.logger)
	s.channel.Start()

	return s, nil
}

// Device returns the bound descriptor.
func (s *Streamer) Device() device.Descriptor {
	return s.dev
}

// State returns a copy of the current snapshot, or nil before the first
// accepted message.
func (s *Streamer) State() *device.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// handleStateMessage translates one inbound frame, extends it with the
// fixed transport capability set and swaps the snapshot.
func (s *Streamer) handleStateMessage(payload []byte) {
	next, err := translateZoneState(s.dev.FriendlyName, payload)
	if err != nil {
		s.logger.Warn("dropping state message", "device", s.dev.FriendlyName, "error", err)
		return
	}
	next.Capabilities = append(next.Capabilities, transportCapabilities...)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	s.onUpdate(updateSourceSMOIP, next.Clone())
}

// hasCapability reports whether the current snapshot advertises cap.
// Before the first accepted snapshot no capability is present.
func (s *Streamer) hasCapability(cap device.Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasCapability(cap)
}

// Transport verbs are silent no-ops until a snapshot advertises the
// matching capability.

// Play starts or resumes playback.
func (s *Streamer) Play(ctx context.Context) error {
	if !s.hasCapability(device.CapPlay) {
		return nil
	}
	return s.ctl.playControl(ctx, "action", "play")
}

// Pause pauses playback.
func (s *Streamer) Pause(ctx context.Context) error {
	if !s.hasCapability(device.CapPause) {
		return nil
	}
	return s.ctl.playControl(ctx, "action", "pause")
}

// Stop stops playback.
func (s *Streamer) Stop(ctx context.Context) error {
	if !s.hasCapability(device.CapStop) {
		return nil
	}
	return s.ctl.playControl(ctx, "action", "stop")
}

// Next skips to the next track.
func (s *Streamer) Next(ctx context.Context) error {
	if !s.hasCapability(device.CapNext) {
		return nil
	}
	return s.ctl.playControl(ctx, "skip_track", "1")
}

// Previous skips to the previous track.
func (s *Streamer) Previous(ctx context.Context) error {
	if !s.hasCapability(device.CapPrevious) {
		return nil
	}
	return s.ctl.playControl(ctx, "skip_track", "-1")
}

// Seek jumps to a position in the current track, in seconds.
func (s *Streamer) Seek(ctx context.Context, position int) error {
	if !s.hasCapability(device.CapSeek) {
		return nil
	}
	return s.ctl.playControl(ctx, "position", strconv.Itoa(position))
}

// TogglePlayback flips between play and pause.
func (s *Streamer) TogglePlayback(ctx context.Context) error {
	if !s.hasCapability(device.CapPlay) {
		return nil
	}
	return s.ctl.playControl(ctx, "action", "toggle")
}

// SetRepeat switches repeat-all on or off.
func (s *Streamer) SetRepeat(ctx context.Context, enabled bool) error {
	if !s.hasCapability(device.CapRepeat) {
		return nil
	}
	return s.ctl.playControl(ctx, "mode_repeat", repeatMode(enabled))
}

// SetShuffle switches shuffle-all on or off.
func (s *Streamer) SetShuffle(ctx context.Context, enabled bool) error {
	if !s.hasCapability(device.CapShuffle) {
		return nil
	}
	return s.ctl.playControl(ctx, "mode_shuffle", repeatMode(enabled))
}

// repeatMode maps a boolean onto the device's mode vocabulary.
func repeatMode(enabled bool) string {
	if enabled {
		return "all"
	}
	return "off"
}

// didlDocument is the subset of a DIDL-Lite metadata document needed to
// find a playable resource URI.
type didlDocument struct {
	Items []struct {
		Resources []struct {
			URI string `xml:",chardata"`
		} `xml:"res"`
	} `xml:"item"`
}

// firstResourceURI extracts the first playable resource URI from a
// DIDL-Lite metadata document.
func firstResourceURI(metadata string) (string, error) {
	var doc didlDocument
	if err := xml.Unmarshal([]byte(metadata), &doc); err != nil {
		return "", fmt.Errorf("%w: parsing metadata: %w", ErrCommand, err)
	}

	for _, item := range doc.Items {
		for _, res := range item.Resources {
			if res.URI != "" {
				return res.URI, nil
			}
		}
	}
	return "", fmt.Errorf("%w: metadata carries no resource URI", ErrCommand)
}

// PlayMetadata plays the item described by a DIDL-Lite metadata document.
// The first resource URI in the document is handed to the device.
// Metadata documents come from the registered media source; without one
// the command is rejected.
func (s *Streamer) PlayMetadata(ctx context.Context, metadata string) error {
	if !s.hasCapability(device.CapPlay) {
		return nil
	}
	if s.mediaSource() == "" {
		return fmt.Errorf("%w: no media source registered", ErrCommand)
	}

	uri, err := firstResourceURI(metadata)
	if err != nil {
		return err
	}
	return s.ctl.playControl(ctx, "url", uri)
}

// ModifyPlaylist applies the item described by a DIDL-Lite metadata
// document to the active playlist. The unary SMOIP control surface only
// supports immediate playback, so queue-editing actions are rejected.
func (s *Streamer) ModifyPlaylist(ctx context.Context, metadata string, action adapter.PlaylistAction, _ int) error {
	if !s.hasCapability(device.CapPlay) {
		return nil
	}
	if s.mediaSource() == "" {
		return fmt.Errorf("%w: no media source registered", ErrCommand)
	}

	switch action {
	case adapter.PlaylistReplace, adapter.PlaylistPlayNow:
	default:
		return fmt.Errorf("%w: playlist action %q not supported by this device", ErrCommand, action)
	}

	uri, err := firstResourceURI(metadata)
	if err != nil {
		return err
	}
	return s.ctl.playControl(ctx, "url", uri)
}

// RegisterMediaSource records which media server playable metadata is
// resolved against. PlayMetadata and ModifyPlaylist refuse to run until
// a source is registered.
func (s *Streamer) RegisterMediaSource(udn string) {
	s.mu.Lock()
	s.mediaSourceUDN = udn
	s.mu.Unlock()
}

// mediaSource returns the registered media source UDN, empty when none.
func (s *Streamer) mediaSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mediaSourceUDN
}

// Subscribe establishes the fixed event subscriptions. With an external
// subscriber collaborator each service gets the collaborator's SID; when
// none is wired, locally generated identifiers mark passive subscriptions
// so event gating still works.
func (s *Streamer) Subscribe(ctx context.Context) error {
	subs := make(map[string]string, len(eventServices))

	for _, service := range eventServices {
		if s.subscriber == nil {
			subs[service] = uuid.NewString()
			continue
		}

		eventURL := "http://" + s.dev.Hostname() + "/upnp/event/" + service
		sid, err := s.subscriber.Subscribe(ctx, service, eventURL)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", service, err)
		}
		subs[service] = sid
	}

	s.mu.Lock()
	s.subs = subs
	s.mu.Unlock()

	s.logger.Info("event subscriptions established",
		"device", s.dev.FriendlyName, "services", len(subs))
	return nil
}

// Subscriptions returns a copy of the active service to subscription-ID
// map.
func (s *Streamer) Subscriptions() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.subs))
	for k, v := range s.subs {
		out[k] = v
	}
	return out
}

// HandleEvent stores one inbound protocol event in the vendor passthrough
// map and notifies the update callback with the current snapshot.
func (s *Streamer) HandleEvent(service string, payload string) {
	s.mu.Lock()
	s.vendor[service] = payload
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.onUpdate(updateSourceUPnP, snapshot)
}

// Vendor returns a copy of the adapter-specific passthrough state.
func (s *Streamer) Vendor() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.vendor))
	for k, v := range s.vendor {
		out[k] = v
	}
	return out
}

// Shutdown cancels subscriptions and closes the state channel.
func (s *Streamer) Shutdown(ctx context.Context) error {
	if s.subscriber != nil {
		for service, sid := range s.Subscriptions() {
			if err := s.subscriber.Unsubscribe(ctx, sid); err != nil {
				s.logger.Warn("unsubscribe failed", "service", service, "error", err)
			}
		}
	}
	return s.channel.Close()
}
