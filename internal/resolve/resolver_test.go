package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/discovery"
)

const testVendor = "Cambridge Audio"

// mockDiscoverer serves a fixed device set and a location->descriptor map.
type mockDiscoverer struct {
	devices      []device.Descriptor
	descriptions map[string]device.Descriptor
}

func (m *mockDiscoverer) Discover(_ context.Context, _ time.Duration) ([]device.Descriptor, error) {
	out := make([]device.Descriptor, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockDiscoverer) FetchDescription(_ context.Context, location string) (device.Descriptor, error) {
	if d, ok := m.descriptions[location]; ok {
		return d, nil
	}
	return device.Descriptor{}, fmt.Errorf("%w: %s", discovery.ErrUnreachable, location)
}

func rendererDevice(udn, name, manufacturer string) device.Descriptor {
	return device.Descriptor{
		UDN:          udn,
		FriendlyName: name,
		ModelName:    "CXNv2",
		Manufacturer: manufacturer,
		DeviceTypes:  []string{"urn:schemas-upnp-org:device:MediaRenderer:1"},
		Location:     "http://" + udn + ".local/description.xml",
	}
}

func serverDevice(udn, name string) device.Descriptor {
	return device.Descriptor{
		UDN:          udn,
		FriendlyName: name,
		ModelName:    "Asset UPnP Server",
		Manufacturer: "Illustrate",
		DeviceTypes:  []string{"urn:schemas-upnp-org:device:MediaServer:1"},
		Location:     "http://" + udn + ".local/description.xml",
	}
}

func newResolver(disc *mockDiscoverer) *Resolver {
	cache := discovery.NewCache(disc)
	return New(cache, Config{
		PreferredVendor:  testVendor,
		DiscoveryTimeout: time.Second,
		ProbeTimeout:     time.Second,
	})
}

func TestStreamerAutoDiscovery(t *testing.T) {
	disc := &mockDiscoverer{devices: []device.Descriptor{
		rendererDevice("uuid:cxn", "Lounge", testVendor),
		serverDevice("uuid:asset", "Asset"),
	}}
	r := newResolver(disc)

	d, err := r.Streamer(context.Background(), "")
	if err != nil {
		t.Fatalf("Streamer() error: %v", err)
	}
	if d.UDN != "uuid:cxn" {
		t.Errorf("resolved %q, want uuid:cxn", d.UDN)
	}
}

func TestStreamerAutoDiscoveryAbsenceIsFatal(t *testing.T) {
	disc := &mockDiscoverer{devices: []device.Descriptor{
		rendererDevice("uuid:other", "Other", "SomeoneElse"),
	}}
	r := newResolver(disc)

	_, err := r.Streamer(context.Background(), "")
	if !errors.Is(err, ErrNoStreamer) {
		t.Errorf("expected ErrNoStreamer, got %v", err)
	}
}

func TestStreamerAutoDiscoveryAmbiguity(t *testing.T) {
	disc := &mockDiscoverer{devices: []device.Descriptor{
		rendererDevice("uuid:a", "Lounge", testVendor),
		rendererDevice("uuid:b", "Study", testVendor),
	}}
	r := newResolver(disc)

	_, err := r.Streamer(context.Background(), "")
	if !errors.Is(err, ErrAmbiguousStreamer) {
		t.Errorf("expected ErrAmbiguousStreamer, got %v", err)
	}
}

func TestStreamerLocationHint(t *testing.T) {
	want := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{
		descriptions: map[string]device.Descriptor{
			"http://192.168.1.40/description.xml": want,
		},
	}
	r := newResolver(disc)

	d, err := r.Streamer(context.Background(), "http://192.168.1.40/description.xml")
	if err != nil {
		t.Fatalf("Streamer() error: %v", err)
	}
	if d.UDN != want.UDN {
		t.Errorf("resolved %q, want %q", d.UDN, want.UDN)
	}
}

func TestStreamerLocationHintUnreachable(t *testing.T) {
	r := newResolver(&mockDiscoverer{})

	_, err := r.Streamer(context.Background(), "http://192.168.1.99/gone.xml")
	if !errors.Is(err, ErrUnreachableLocation) {
		t.Errorf("expected ErrUnreachableLocation, got %v", err)
	}
}

func TestStreamerFriendlyNameMissIsFatal(t *testing.T) {
	disc := &mockDiscoverer{devices: []device.Descriptor{
		rendererDevice("uuid:cxn", "Lounge", testVendor),
	}}
	r := newResolver(disc)

	_, err := r.Streamer(context.Background(), "No Such Device")
	if !errors.Is(err, ErrNoNameMatch) {
		t.Errorf("expected ErrNoNameMatch, got %v", err)
	}
}

func TestStreamerResolutionIsDeterministic(t *testing.T) {
	// Two discovery orderings of the same set must resolve identically.
	a := rendererDevice("uuid:a", "Lounge", testVendor)
	b := serverDevice("uuid:b", "Asset")

	for _, ordering := range [][]device.Descriptor{{a, b}, {b, a}} {
		r := newResolver(&mockDiscoverer{devices: ordering})

		first, err := r.Streamer(context.Background(), "")
		if err != nil {
			t.Fatalf("Streamer() error: %v", err)
		}
		second, err := r.Streamer(context.Background(), "")
		if err != nil {
			t.Fatalf("Streamer() error: %v", err)
		}
		if first.UDN != second.UDN || first.UDN != "uuid:a" {
			t.Errorf("nondeterministic resolution: %q then %q", first.UDN, second.UDN)
		}
	}
}

// probeServer starts an httptest server and returns (host, port) plus a
// resolver whose prober targets it.
func probeResolver(t *testing.T, disc *mockDiscoverer, handler http.HandlerFunc) (*Resolver, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("splitting server address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	cache := discovery.NewCache(disc)
	return New(cache, Config{
		PreferredVendor:  testVendor,
		DiscoveryTimeout: time.Second,
		ProbePort:        port,
		ProbeTimeout:     time.Second,
	}), host
}

func TestStreamerVendorProbe(t *testing.T) {
	want := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{
		descriptions: map[string]device.Descriptor{
			"http://probe.local/description.xml": want,
		},
	}

	r, host := probeResolver(t, disc, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/smoip/system/upnp" {
			http.NotFound(w, req)
			return
		}
		fmt.Fprint(w, `{"data":{"devices":[
			{"manufacturer":"SomeoneElse","description_url":"http://other.local/d.xml"},
			{"manufacturer":"Cambridge Audio","description_url":"http://probe.local/description.xml"}
		]}}`)
	})

	d, err := r.Streamer(context.Background(), host)
	if err != nil {
		t.Fatalf("Streamer() error: %v", err)
	}
	if d.UDN != want.UDN {
		t.Errorf("resolved %q, want %q", d.UDN, want.UDN)
	}
}

func TestStreamerProbeFailureFallsThroughToFriendlyName(t *testing.T) {
	// The probed host responds with something that is not a vendor listing;
	// the hint must then be retried as a friendly name.
	disc := &mockDiscoverer{devices: []device.Descriptor{
		{
			UDN:          "uuid:named",
			FriendlyName: "127.0.0.1",
			ModelName:    "CXNv2",
			Manufacturer: testVendor,
			DeviceTypes:  []string{"urn:schemas-upnp-org:device:MediaRenderer:1"},
		},
	}}

	r, _ := probeResolver(t, disc, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>definitely not json</html>")
	})

	d, err := r.Streamer(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("Streamer() error: %v", err)
	}
	if d.UDN != "uuid:named" {
		t.Errorf("resolved %q, want uuid:named", d.UDN)
	}
}

func TestMediaServerFallbackDiscovery(t *testing.T) {
	// Non-vendor streamer: the media server comes from the discovery
	// snapshot filtered by server device type.
	streamer := rendererDevice("uuid:other", "Other", "SomeoneElse")
	disc := &mockDiscoverer{devices: []device.Descriptor{
		streamer,
		serverDevice("uuid:asset", "Asset"),
	}}
	r := newResolver(disc)

	d, err := r.MediaServer(context.Background(), "", streamer)
	if err != nil {
		t.Fatalf("MediaServer() error: %v", err)
	}
	if d == nil || d.UDN != "uuid:asset" {
		t.Errorf("resolved %+v, want uuid:asset", d)
	}
}

func TestMediaServerAbsenceDegrades(t *testing.T) {
	streamer := rendererDevice("uuid:other", "Other", "SomeoneElse")
	disc := &mockDiscoverer{devices: []device.Descriptor{streamer}}
	r := newResolver(disc)

	d, err := r.MediaServer(context.Background(), "", streamer)
	if err != nil {
		t.Fatalf("MediaServer() error: %v", err)
	}
	if d != nil {
		t.Errorf("expected absent media server, got %+v", d)
	}
}

func TestMediaServerFriendlyNameMissDegrades(t *testing.T) {
	streamer := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{devices: []device.Descriptor{streamer}}
	r := newResolver(disc)

	d, err := r.MediaServer(context.Background(), "No Such Server", streamer)
	if err != nil {
		t.Fatalf("MediaServer() should degrade, got error: %v", err)
	}
	if d != nil {
		t.Errorf("expected absent media server, got %+v", d)
	}
}

func TestAmplifierSingleRendererMayEqualStreamer(t *testing.T) {
	streamer := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{devices: []device.Descriptor{
		streamer,
		serverDevice("uuid:asset", "Asset"),
	}}
	r := newResolver(disc)

	d, err := r.Amplifier(context.Background(), "", streamer)
	if err != nil {
		t.Fatalf("Amplifier() error: %v", err)
	}
	if d == nil || !d.Equal(streamer) {
		t.Errorf("expected the streamer's own device, got %+v", d)
	}
}

func TestAmplifierPrefersNonStreamerRenderer(t *testing.T) {
	streamer := rendererDevice("uuid:a-cxn", "Lounge", testVendor)
	amp := rendererDevice("uuid:b-amp", "Evo 150", testVendor)
	disc := &mockDiscoverer{devices: []device.Descriptor{streamer, amp}}
	r := newResolver(disc)

	d, err := r.Amplifier(context.Background(), "", streamer)
	if err != nil {
		t.Fatalf("Amplifier() error: %v", err)
	}
	if d == nil || d.UDN != "uuid:b-amp" {
		t.Errorf("resolved %+v, want uuid:b-amp", d)
	}
}

func TestAmplifierAbsenceDegrades(t *testing.T) {
	streamer := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{devices: []device.Descriptor{serverDevice("uuid:asset", "Asset")}}
	r := newResolver(disc)

	d, err := r.Amplifier(context.Background(), "", streamer)
	if err != nil {
		t.Fatalf("Amplifier() error: %v", err)
	}
	if d != nil {
		t.Errorf("expected absent amplifier, got %+v", d)
	}
}

func TestAmplifierFriendlyNameMissDegrades(t *testing.T) {
	streamer := rendererDevice("uuid:cxn", "Lounge", testVendor)
	disc := &mockDiscoverer{devices: []device.Descriptor{streamer}}
	r := newResolver(disc)

	d, err := r.Amplifier(context.Background(), "No Such Amp", streamer)
	if err != nil {
		t.Fatalf("Amplifier() should degrade, got error: %v", err)
	}
	if d != nil {
		t.Errorf("expected absent amplifier, got %+v", d)
	}
}

func TestProberMissingDescriptionURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"devices":[{"manufacturer":"Cambridge Audio"}]}}`)
	}))
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	p := NewProber(port, time.Second)

	_, err := p.VendorDeviceLocation(context.Background(), host, testVendor)
	if !errors.Is(err, ErrProbe) {
		t.Errorf("expected ErrProbe for missing description_url, got %v", err)
	}
}

func TestProberNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	p := NewProber(port, time.Second)

	_, err := p.Listing(context.Background(), host)
	if !errors.Is(err, ErrProbe) {
		t.Errorf("expected ErrProbe for non-200, got %v", err)
	}
}
