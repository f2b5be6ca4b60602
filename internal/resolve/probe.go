package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Probe constants.
const (
	// probePath is the fixed vendor endpoint listing the devices a
	// StreamMagic host knows about.
	probePath = "/smoip/system/upnp"

	// defaultProbePort is the HTTP port probed on candidate hosts.
	defaultProbePort = 80

	// defaultProbeTimeout bounds a single probe request.
	defaultProbeTimeout = 10 * time.Second

	// maxProbeResponseSize caps the probe response body (1MB).
	maxProbeResponseSize = 1 << 20
)

// ProbeDevice is one entry from a vendor probe's device listing.
type ProbeDevice struct {
	Manufacturer   string `json:"manufacturer"`
	DescriptionURL string `json:"description_url"`
}

// probeResponse mirrors the vendor's JSON listing shape:
//
//	{ "data": { "devices": [ { "manufacturer": ..., "description_url": ... } ] } }
type probeResponse struct {
	Data struct {
		Devices []ProbeDevice `json:"devices"`
	} `json:"data"`
}

// Prober issues bounded-timeout HTTP probes against candidate hosts to
// check whether they expose the vendor's device-listing endpoint.
//
// Every failure mode (timeout, non-200, non-JSON, missing fields) is
// reported as ErrProbe so callers can treat it as recoverable.
type Prober struct {
	client *http.Client
	port   int
}

// NewProber creates a prober. A zero port or timeout selects the defaults
// (port 80, 10s).
func NewProber(port int, timeout time.Duration) *Prober {
	if port <= 0 {
		port = defaultProbePort
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Prober{
		client: &http.Client{Timeout: timeout},
		port:   port,
	}
}

// Listing fetches the device listing from the vendor endpoint on host.
//
// Returns:
//   - []ProbeDevice: the devices the host reports, possibly empty
//   - error: ErrProbe-wrapped for every recoverable failure
func (p *Prober) Listing(ctx context.Context, host string) ([]ProbeDevice, error) {
	endpoint := fmt.Sprintf("http://%s:%d%s", host, p.port, probePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProbe, host, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProbe, host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrProbe, host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProbe, host, err)
	}

	var listing probeResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: %s: not a vendor device listing: %w", ErrProbe, host, err)
	}

	return listing.Data.Devices, nil
}

// VendorDeviceLocation probes host and returns the description URL of the
// first listed device from the given manufacturer.
//
// Returns:
//   - string: the description URL
//   - error: ErrProbe-wrapped if the host is not a vendor device, lists no
//     matching device, or the matching entry has no description URL
func (p *Prober) VendorDeviceLocation(ctx context.Context, host, manufacturer string) (string, error) {
	devices, err := p.Listing(ctx, host)
	if err != nil {
		return "", err
	}

	for _, d := range devices {
		if d.Manufacturer != manufacturer {
			continue
		}
		if d.DescriptionURL == "" {
			return "", fmt.Errorf("%w: %s: device listing entry has no description_url", ErrProbe, host)
		}
		return d.DescriptionURL, nil
	}

	return "", fmt.Errorf("%w: %s: no device from %q in listing", ErrProbe, host, manufacturer)
}
