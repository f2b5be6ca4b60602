package resolve

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/discovery"
)

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Config holds resolver settings.
type Config struct {
	// PreferredVendor is the manufacturer favoured during auto-discovery
	// and targeted by the vendor probe (e.g. "Cambridge Audio").
	PreferredVendor string

	// DiscoveryTimeout bounds the one network scan the resolver may trigger.
	DiscoveryTimeout time.Duration

	// ProbePort and ProbeTimeout configure the vendor probe.
	ProbePort    int
	ProbeTimeout time.Duration
}

// Resolver turns a role plus an optional hint into at most one bound device
// descriptor. Each role has a strict heuristic chain (see the method docs);
// the first step that succeeds wins.
//
// Resolution is a pure function of (cached discovery snapshot, hint): the
// underlying Cache scans once and returns a UDN-sorted snapshot, so the
// same inputs always yield the same descriptor.
//
// Degradation policy: "device absent" outcomes (nothing discovered for an
// optional role, or a friendly-name miss for an optional role) return
// (nil, nil) and are logged here. Hard failures (unreachable location URL,
// side-channel errors) are returned as errors for the caller to treat as
// fatal or degradable depending on the role.
type Resolver struct {
	cache  *discovery.Cache
	prober *Prober
	cfg    Config
	logger Logger
}

// New creates a resolver over the given discovery cache.
func New(cache *discovery.Cache, cfg Config) *Resolver {
	return &Resolver{
		cache:  cache,
		prober: NewProber(cfg.ProbePort, cfg.ProbeTimeout),
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Streamer resolves the mandatory streamer role.
//
// Heuristic chain:
//  1. No hint: scan and select the unique preferred-vendor renderer.
//     Absence and ambiguity are both fatal.
//  2. Hint is a URL: fetch the device description from it directly.
//  3. Hint is a bare host: probe the vendor device-listing endpoint on it;
//     every recoverable probe failure falls through to step 4.
//  4. Friendly-name exact match against the discovery snapshot.
func (r *Resolver) Streamer(ctx context.Context, hint string) (device.Descriptor, error) {
	if hint == "" {
		r.logger.Info("no streamer specified, auto-discovering",
			"vendor", r.cfg.PreferredVendor)
		return r.autoDiscoverStreamer(ctx)
	}

	if location, ok := parseLocationHint(hint); ok {
		r.logger.Info("resolving streamer from location URL", "location", location)
		d, err := r.cache.FetchDescription(ctx, location)
		if err != nil {
			return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrUnreachableLocation, location, err)
		}
		return d, nil
	}

	// Bare host or friendly name. Try the vendor probe first; any
	// recoverable failure falls through to friendly-name matching.
	r.logger.Info("probing host for vendor device listing", "host", hint)
	location, err := r.prober.VendorDeviceLocation(ctx, hint, r.cfg.PreferredVendor)
	if err == nil {
		d, ferr := r.cache.FetchDescription(ctx, location)
		if ferr != nil {
			return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrUnreachableLocation, location, ferr)
		}
		return d, nil
	}
	r.logger.Debug("vendor probe failed, trying friendly name", "host", hint, "error", err)

	d, found, err := r.byFriendlyName(ctx, hint)
	if err != nil {
		return device.Descriptor{}, err
	}
	if !found {
		return device.Descriptor{}, fmt.Errorf("%w: %q", ErrNoNameMatch, hint)
	}
	return d, nil
}

// autoDiscoverStreamer selects the unique preferred-vendor renderer from
// the discovery snapshot.
func (r *Resolver) autoDiscoverStreamer(ctx context.Context) (device.Descriptor, error) {
	devices, err := r.cache.Devices(ctx, r.cfg.DiscoveryTimeout)
	if err != nil {
		return device.Descriptor{}, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	var candidates []device.Descriptor
	for _, d := range devices {
		if d.Manufacturer == r.cfg.PreferredVendor && d.HasDeviceType(device.DeviceTypeRenderer) {
			candidates = append(candidates, d)
		}
	}

	switch len(candidates) {
	case 0:
		return device.Descriptor{}, fmt.Errorf("%w: no %s renderer discovered",
			ErrNoStreamer, r.cfg.PreferredVendor)
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.FriendlyName
		}
		return device.Descriptor{}, fmt.Errorf("%w: %v", ErrAmbiguousStreamer, names)
	}
}

// MediaServer resolves the optional media server role.
//
// Heuristic chain:
//  1. No hint: if the streamer is a preferred-vendor device, consult the
//     streamer's own device listing for a server-type device; otherwise
//     select the first server-type device from the discovery snapshot.
//     Absence degrades to (nil, nil).
//  2. Hint is a URL: fetch the device description from it directly.
//  3. Friendly-name exact match; a miss degrades to (nil, nil) with a
//     logged warning.
func (r *Resolver) MediaServer(ctx context.Context, hint string, streamer device.Descriptor) (*device.Descriptor, error) {
	if hint == "" {
		if streamer.Manufacturer == r.cfg.PreferredVendor {
			r.logger.Info("asking streamer for its media server", "streamer", streamer.FriendlyName)
			return r.mediaServerFromStreamer(ctx, streamer)
		}
		return r.autoDiscoverByType(ctx, device.DeviceTypeServer, "media server")
	}

	if location, ok := parseLocationHint(hint); ok {
		r.logger.Info("resolving media server from location URL", "location", location)
		d, err := r.cache.FetchDescription(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnreachableLocation, location, err)
		}
		return &d, nil
	}

	d, found, err := r.byFriendlyName(ctx, hint)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Warn("no media server with friendly name, continuing without one", "name", hint)
		return nil, nil
	}
	return &d, nil
}

// mediaServerFromStreamer queries the streamer's side-channel device
// listing for the first server-type device.
func (r *Resolver) mediaServerFromStreamer(ctx context.Context, streamer device.Descriptor) (*device.Descriptor, error) {
	host := streamer.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: streamer %q has no usable location", ErrResolution, streamer.FriendlyName)
	}

	listing, err := r.prober.Listing(ctx, host)
	if err != nil {
		return nil, err
	}

	for _, entry := range listing {
		if entry.DescriptionURL == "" {
			continue
		}
		d, err := r.cache.FetchDescription(ctx, entry.DescriptionURL)
		if err != nil {
			r.logger.Debug("skipping unreachable listing entry",
				"location", entry.DescriptionURL, "error", err)
			continue
		}
		if d.HasDeviceType(device.DeviceTypeServer) {
			return &d, nil
		}
	}

	r.logger.Warn("streamer did not report a media server", "streamer", streamer.FriendlyName)
	return nil, nil
}

// Amplifier resolves the optional amplifier role.
//
// Heuristic chain:
//  1. No hint: filter the snapshot to renderer-type devices. Exactly one
//     renderer is returned even when it equals the streamer's own device
//     (a streamer can act as its own amplifier). With several renderers the
//     first that is not the streamer wins. Absence degrades to (nil, nil).
//  2. Hint is a URL: fetch the device description from it directly.
//  3. Friendly-name exact match; a miss degrades to (nil, nil) with a
//     logged warning.
func (r *Resolver) Amplifier(ctx context.Context, hint string, streamer device.Descriptor) (*device.Descriptor, error) {
	if hint == "" {
		devices, err := r.cache.Devices(ctx, r.cfg.DiscoveryTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResolution, err)
		}

		var renderers []device.Descriptor
		for _, d := range devices {
			if d.HasDeviceType(device.DeviceTypeRenderer) {
				renderers = append(renderers, d)
			}
		}

		if len(renderers) == 1 {
			return &renderers[0], nil
		}
		for i := range renderers {
			if !renderers[i].Equal(streamer) {
				return &renderers[i], nil
			}
		}

		r.logger.Warn("no amplifier discovered, continuing without one")
		return nil, nil
	}

	if location, ok := parseLocationHint(hint); ok {
		r.logger.Info("resolving amplifier from location URL", "location", location)
		d, err := r.cache.FetchDescription(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnreachableLocation, location, err)
		}
		return &d, nil
	}

	d, found, err := r.byFriendlyName(ctx, hint)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Warn("no amplifier with friendly name, continuing without one", "name", hint)
		return nil, nil
	}
	return &d, nil
}

// autoDiscoverByType returns the first device carrying the given type tag,
// or (nil, nil) if none is discovered.
func (r *Resolver) autoDiscoverByType(ctx context.Context, tag, roleName string) (*device.Descriptor, error) {
	devices, err := r.cache.Devices(ctx, r.cfg.DiscoveryTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	for i := range devices {
		if devices[i].HasDeviceType(tag) {
			return &devices[i], nil
		}
	}

	r.logger.Warn("no device discovered for optional role", "role", roleName)
	return nil, nil
}

// byFriendlyName scans the snapshot for an exact friendly-name match.
func (r *Resolver) byFriendlyName(ctx context.Context, name string) (device.Descriptor, bool, error) {
	devices, err := r.cache.Devices(ctx, r.cfg.DiscoveryTimeout)
	if err != nil {
		return device.Descriptor{}, false, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	for _, d := range devices {
		if d.FriendlyName == name {
			return d, true, nil
		}
	}
	return device.Descriptor{}, false, nil
}

// parseLocationHint reports whether the hint is a location URL. Bare hosts
// and friendly names parse without a scheme/host pair and are not treated
// as locations.
func parseLocationHint(hint string) (string, bool) {
	u, err := url.Parse(hint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return hint, true
}
