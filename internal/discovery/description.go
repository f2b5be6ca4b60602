package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
)

const (
	// defaultFetchTimeout bounds a single description fetch.
	defaultFetchTimeout = 10 * time.Second

	// maxDescriptionSize caps the description document size (1MB).
	maxDescriptionSize = 1 << 20
)

// deviceDescription mirrors the relevant parts of a UPnP device description
// document (urn:schemas-upnp-org:device-1-0).
type deviceDescription struct {
	XMLName xml.Name          `xml:"root"`
	Device  descriptionDevice `xml:"device"`
}

type descriptionDevice struct {
	DeviceType   string               `xml:"deviceType"`
	FriendlyName string               `xml:"friendlyName"`
	Manufacturer string               `xml:"manufacturer"`
	ModelName    string               `xml:"modelName"`
	UDN          string               `xml:"UDN"`
	ServiceList  []descriptionService `xml:"serviceList>service"`
	DeviceList   []descriptionDevice  `xml:"deviceList>device"`
}

type descriptionService struct {
	ServiceType string `xml:"serviceType"`
	ControlURL  string `xml:"controlURL"`
}

// serviceContentDirectory is the service type fragment identifying a
// ContentDirectory control endpoint.
const serviceContentDirectory = "ContentDirectory"

// HTTPDescriptionClient fetches UPnP device descriptions over plain HTTP.
// It implements DescriptionFetcher. The discovery scan itself (SSDP
// multicast) stays with an external collaborator; fetching one description
// document is ordinary HTTP plus XML.
type HTTPDescriptionClient struct {
	client *http.Client
}

// NewHTTPDescriptionClient creates a description client with a bounded
// request timeout.
func NewHTTPDescriptionClient() *HTTPDescriptionClient {
	return &HTTPDescriptionClient{
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
}

// FetchDescription fetches and parses the device description at location.
//
// Returns:
//   - device.Descriptor: descriptor built from the root device, with the
//     device types of all embedded devices included
//   - error: ErrUnreachable if the URL cannot be fetched, ErrBadDescription
//     if the document cannot be parsed
func (c *HTTPDescriptionClient) FetchDescription(ctx context.Context, location string) (device.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return device.Descriptor{}, fmt.Errorf("%w: %s: status %d", ErrUnreachable, location, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
	if err != nil {
		return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrUnreachable, location, err)
	}

	var desc deviceDescription
	if err := xml.Unmarshal(body, &desc); err != nil {
		return device.Descriptor{}, fmt.Errorf("%w: %s: %w", ErrBadDescription, location, err)
	}
	if desc.Device.UDN == "" {
		return device.Descriptor{}, fmt.Errorf("%w: %s: missing UDN", ErrBadDescription, location)
	}

	return device.Descriptor{
		UDN:                 desc.Device.UDN,
		FriendlyName:        desc.Device.FriendlyName,
		ModelName:           desc.Device.ModelName,
		Manufacturer:        desc.Device.Manufacturer,
		DeviceTypes:         collectDeviceTypes(desc.Device),
		Location:            location,
		ContentDirectoryURL: contentDirectoryURL(desc.Device, location),
	}, nil
}

// contentDirectoryURL finds the ContentDirectory control endpoint of the
// root device or any embedded device, resolved against the description's
// base URL. Empty when the device exposes no such service.
func contentDirectoryURL(d descriptionDevice, base string) string {
	for _, svc := range d.ServiceList {
		if strings.Contains(svc.ServiceType, serviceContentDirectory) && svc.ControlURL != "" {
			return resolveURL(base, svc.ControlURL)
		}
	}
	for _, embedded := range d.DeviceList {
		if u := contentDirectoryURL(embedded, base); u != "" {
			return u
		}
	}
	return ""
}

// resolveURL resolves a possibly relative control URL against the
// description document's URL.
func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// collectDeviceTypes gathers the device type URNs of the root device and
// every embedded device, depth first.
func collectDeviceTypes(d descriptionDevice) []string {
	types := []string{}
	if d.DeviceType != "" {
		types = append(types, d.DeviceType)
	}
	for _, embedded := range d.DeviceList {
		types = append(types, collectDeviceTypes(embedded)...)
	}
	return types
}

// StaticScanner implements Scanner over a fixed list of device description
// URLs. It stands in for an SSDP-backed scanner on networks where multicast
// discovery is unavailable; each configured location is fetched within the
// scan timeout and unreachable entries are skipped.
type StaticScanner struct {
	locations []string
	fetcher   DescriptionFetcher
	logger    Logger
}

// NewStaticScanner creates a scanner over the given description URLs.
func NewStaticScanner(locations []string, fetcher DescriptionFetcher) *StaticScanner {
	return &StaticScanner{
		locations: locations,
		fetcher:   fetcher,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the scanner.
func (s *StaticScanner) SetLogger(logger Logger) {
	s.logger = logger
}

// Discover fetches every configured description within the timeout.
// Locations that cannot be fetched are logged and skipped; the scan itself
// only fails if the context is cancelled.
func (s *StaticScanner) Discover(ctx context.Context, timeout time.Duration) ([]device.Descriptor, error) {
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices := make([]device.Descriptor, 0, len(s.locations))
	for _, location := range s.locations {
		if err := scanCtx.Err(); err != nil {
			return nil, fmt.Errorf("discovery scan: %w", err)
		}

		d, err := s.fetcher.FetchDescription(scanCtx, location)
		if err != nil {
			s.logger.Warn("skipping unreachable device", "location", location, "error", err)
			continue
		}
		devices = append(devices, d)
	}

	return devices, nil
}

// Compile-time interface checks.
var (
	_ DescriptionFetcher = (*HTTPDescriptionClient)(nil)
	_ Scanner            = (*StaticScanner)(nil)
)

// CombinedDiscoverer joins an independent Scanner and DescriptionFetcher
// into a Discoverer.
type CombinedDiscoverer struct {
	Scanner
	DescriptionFetcher
}
