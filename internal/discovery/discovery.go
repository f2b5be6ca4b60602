package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// Logger defines the logging interface used by this package.
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

// Scanner performs one bounded scan of the local network for devices.
// The transport behind it (SSDP/UPnP multicast, static address list, ...)
// is a collaborator concern; Auriga only requires the bounded-scan contract.
type Scanner interface {
	// Discover returns every device found within the timeout.
	Discover(ctx context.Context, timeout time.Duration) ([]device.Descriptor, error)
}

// DescriptionFetcher retrieves a single device description by its location URL.
type DescriptionFetcher interface {
	// FetchDescription fetches and parses the device description at location.
	FetchDescription(ctx context.Context, location string) (device.Descriptor, error)
}

// Discoverer combines scanning and description fetching.
type Discoverer interface {
	Scanner
	DescriptionFetcher
}

// Cache memoizes the result of a single network scan for the process
// lifetime. The first call to Devices performs the bounded scan; every
// subsequent call returns the same cached set regardless of its timeout
// argument. There is no invalidation or refresh.
//
// The cached set is sorted by UDN so that everything derived from it
// (role resolution in particular) is deterministic.
//
// Thread Safety: all methods are safe for concurrent use.
type Cache struct {
	disc Discoverer

	once    sync.Once
	devices []device.Descriptor
	err     error

	logger Logger
}

// NewCache creates a discovery cache over the given discoverer.
func NewCache(disc Discoverer) *Cache {
	return &Cache{
		disc:   disc,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// Devices returns the cached device set, performing the scan on first use.
// The returned slice is a copy; callers may reorder or modify it freely.
func (c *Cache) Devices(ctx context.Context, timeout time.Duration) ([]device.Descriptor, error) {
	c.once.Do(func() {
		c.logger.Info("discovering devices", "timeout", timeout)

		devices, err := c.disc.Discover(ctx, timeout)
		if err != nil {
			c.err = err
			return
		}

		sort.Slice(devices, func(i, j int) bool {
			return devices[i].UDN < devices[j].UDN
		})
		c.devices = devices

		for _, d := range devices {
			c.logger.Info("found device",
				"model", d.ModelName,
				"name", d.FriendlyName,
				"manufacturer", d.Manufacturer,
			)
		}
	})

	if c.err != nil {
		return nil, c.err
	}

	out := make([]device.Descriptor, len(c.devices))
	copy(out, c.devices)
	return out, nil
}

// FetchDescription fetches a single device description. Descriptions are
// not cached; they are only requested for explicit hints, never on a
// per-request path.
func (c *Cache) FetchDescription(ctx context.Context, location string) (device.Descriptor, error) {
	return c.disc.FetchDescription(ctx, location)
}
