package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// mockDiscoverer counts scans and returns a fixed device set.
type mockDiscoverer struct {
	scans   atomic.Int32
	devices []device.Descriptor
	err     error
}

func (m *mockDiscoverer) Discover(_ context.Context, _ time.Duration) ([]device.Descriptor, error) {
	m.scans.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]device.Descriptor, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockDiscoverer) FetchDescription(_ context.Context, location string) (device.Descriptor, error) {
	return device.Descriptor{}, fmt.Errorf("%w: %s", ErrUnreachable, location)
}

func TestCacheScansOnce(t *testing.T) {
	disc := &mockDiscoverer{
		devices: []device.Descriptor{
			{UDN: "uuid:b", FriendlyName: "Second"},
			{UDN: "uuid:a", FriendlyName: "First"},
		},
	}
	cache := NewCache(disc)

	first, err := cache.Devices(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	// Second call with a different timeout must return the same cached set
	// without rescanning.
	second, err := cache.Devices(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	if got := disc.scans.Load(); got != 1 {
		t.Errorf("expected exactly 1 scan, got %d", got)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 devices, got %d and %d", len(first), len(second))
	}

	// Cached set is sorted by UDN for deterministic resolution.
	if first[0].UDN != "uuid:a" || second[0].UDN != "uuid:a" {
		t.Error("cached set should be sorted by UDN")
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	disc := &mockDiscoverer{
		devices: []device.Descriptor{{UDN: "uuid:a", FriendlyName: "Streamer"}},
	}
	cache := NewCache(disc)

	first, _ := cache.Devices(context.Background(), time.Second)
	first[0].FriendlyName = "mutated"

	second, _ := cache.Devices(context.Background(), time.Second)
	if second[0].FriendlyName != "Streamer" {
		t.Error("mutating a returned slice leaked into the cache")
	}
}

func TestCacheScanError(t *testing.T) {
	scanErr := errors.New("network down")
	cache := NewCache(&mockDiscoverer{err: scanErr})

	if _, err := cache.Devices(context.Background(), time.Second); !errors.Is(err, scanErr) {
		t.Errorf("expected scan error, got %v", err)
	}
}

const rendererDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>Lounge</friendlyName>
    <manufacturer>Cambridge Audio</manufacturer>
    <modelName>CXNv2</modelName>
    <UDN>uuid:renderer-1</UDN>
    <deviceList>
      <device>
        <deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
        <friendlyName>Lounge Server</friendlyName>
        <UDN>uuid:renderer-1-srv</UDN>
      </device>
    </deviceList>
  </device>
</root>`

func TestFetchDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rendererDescription)
	}))
	defer srv.Close()

	client := NewHTTPDescriptionClient()
	d, err := client.FetchDescription(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchDescription() error: %v", err)
	}

	if d.UDN != "uuid:renderer-1" {
		t.Errorf("UDN = %q, want uuid:renderer-1", d.UDN)
	}
	if d.ModelName != "CXNv2" {
		t.Errorf("ModelName = %q, want CXNv2", d.ModelName)
	}
	if d.Manufacturer != "Cambridge Audio" {
		t.Errorf("Manufacturer = %q", d.Manufacturer)
	}
	if !d.HasDeviceType(device.DeviceTypeRenderer) {
		t.Error("expected renderer device type")
	}
	// Embedded device types are collected too.
	if !d.HasDeviceType(device.DeviceTypeServer) {
		t.Error("expected embedded server device type")
	}
	if d.Location != srv.URL {
		t.Errorf("Location = %q, want %q", d.Location, srv.URL)
	}
}

func TestFetchDescriptionUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // immediately closed: connection refused

	client := NewHTTPDescriptionClient()
	if _, err := client.FetchDescription(context.Background(), srv.URL); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestFetchDescriptionMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not xml at all <<<")
	}))
	defer srv.Close()

	client := NewHTTPDescriptionClient()
	if _, err := client.FetchDescription(context.Background(), srv.URL); !errors.Is(err, ErrBadDescription) {
		t.Errorf("expected ErrBadDescription, got %v", err)
	}
}

func TestStaticScannerSkipsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rendererDescription)
	}))
	defer srv.Close()

	fetcher := NewHTTPDescriptionClient()
	scanner := NewStaticScanner([]string{srv.URL, "http://127.0.0.1:1/dead.xml"}, fetcher)

	devices, err := scanner.Discover(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].FriendlyName != "Lounge" {
		t.Errorf("unexpected device: %+v", devices[0])
	}
}
