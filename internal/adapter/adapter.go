package adapter

import (
	"context"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// Logger defines the logging interface used by adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// UpdateFunc receives a fresh state snapshot from an adapter. The source
// names the channel the update arrived on (e.g. "smoip", "upnp"). The
// snapshot is a copy the receiver owns.
type UpdateFunc func(source string, state *device.State)

// EventSubscriber establishes protocol-level event subscriptions on behalf
// of an adapter. Implementations own the renewal lifecycle.
type EventSubscriber interface {
	// Subscribe registers interest in events from the named service at
	// the given event URL and returns a subscription identifier.
	Subscribe(ctx context.Context, service, eventURL string) (string, error)

	// Unsubscribe cancels a subscription previously returned by Subscribe.
	Unsubscribe(ctx context.Context, sid string) error
}

// Options carries the collaborators an adapter factory may wire in. All
// fields are optional; adapters fall back to no-op defaults.
type Options struct {
	// Logger receives the adapter's structured log output.
	Logger Logger

	// OnUpdate is invoked with a fresh snapshot after every accepted
	// state change.
	OnUpdate UpdateFunc

	// OnConnect is invoked each time a persistent channel (re)connects.
	OnConnect func()

	// OnDisconnect is invoked each time a persistent channel drops,
	// with the error that ended it.
	OnDisconnect func(err error)

	// EventSubscriber handles protocol event subscriptions for adapters
	// that expose them.
	EventSubscriber EventSubscriber

	// ContentDirectory is the browse transport for media server adapters.
	ContentDirectory ContentDirectory
}

// PlaylistAction selects how ModifyPlaylist applies an item to the
// device's active playlist.
type PlaylistAction string

const (
	PlaylistReplace  PlaylistAction = "REPLACE"
	PlaylistPlayNow  PlaylistAction = "PLAY_NOW"
	PlaylistPlayNext PlaylistAction = "PLAY_NEXT"
	PlaylistAppend   PlaylistAction = "APPEND"
	PlaylistInsert   PlaylistAction = "INSERT"
)

// Streamer is a bound streamer device. Transport verbs report protocol
// failures as errors, and are silent no-ops until a snapshot advertises
// the matching capability.
type Streamer interface {
	// Device returns the descriptor the adapter was bound to.
	Device() device.Descriptor

	// State returns a copy of the current state snapshot.
	State() *device.State

	// Transport control.
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, position int) error
	TogglePlayback(ctx context.Context) error

	// Playback mode settings.
	SetRepeat(ctx context.Context, enabled bool) error
	SetShuffle(ctx context.Context, enabled bool) error

	// PlayMetadata asks the device to play the item described by the
	// given DIDL-Lite metadata document.
	PlayMetadata(ctx context.Context, metadata string) error

	// ModifyPlaylist applies the item described by a DIDL-Lite metadata
	// document to the active playlist. insertIndex is only meaningful
	// for PlaylistInsert.
	ModifyPlaylist(ctx context.Context, metadata string, action PlaylistAction, insertIndex int) error

	// RegisterMediaSource tells the streamer which media server playable
	// metadata will be resolved against.
	RegisterMediaSource(udn string)

	// Subscribe establishes event subscriptions for the streamer's
	// services. Subscriptions() reports the active service->SID map.
	Subscribe(ctx context.Context) error
	Subscriptions() map[string]string

	// HandleEvent delivers one inbound protocol event for a subscribed
	// service.
	HandleEvent(service, payload string)

	// Vendor returns adapter-specific extension state for passthrough.
	Vendor() map[string]any

	// Shutdown releases channel resources and cancels subscriptions.
	Shutdown(ctx context.Context) error
}

// MediaServer is a bound media server device.
type MediaServer interface {
	// Device returns the descriptor the adapter was bound to.
	Device() device.Descriptor

	// Albums lists every album the server exposes.
	Albums(ctx context.Context) ([]Album, error)

	// Tracks lists the tracks of one album.
	Tracks(ctx context.Context, albumID string) ([]Track, error)

	// Children lists the immediate children of a container.
	Children(ctx context.Context, parentID string) ([]BrowseEntry, error)

	// Metadata returns the raw DIDL-Lite metadata document for one item.
	Metadata(ctx context.Context, id string) (string, error)
}

// Amplifier is a bound amplifier device. Commands for capabilities the
// device does not advertise are silent no-ops returning nil.
type Amplifier interface {
	// Device returns the descriptor the adapter was bound to.
	Device() device.Descriptor

	// State returns a copy of the current state snapshot.
	State() *device.State

	SetPower(ctx context.Context, on bool) error
	PowerToggle(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	SetMute(ctx context.Context, muted bool) error
	MuteToggle(ctx context.Context) error
	SetAudioSource(ctx context.Context, source string) error

	// Shutdown releases channel resources.
	Shutdown(ctx context.Context) error
}
