package assetupnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finchley-audio/auriga-core/internal/adapter"
)

const (
	contentDirectoryService = "urn:schemas-upnp-org:service:ContentDirectory:1"
	browseAction            = "Browse"

	soapTimeout        = 15 * time.Second
	maxSOAPBodySize    = 8 << 20
	soapEnvelopeFormat = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:Browse xmlns:u="%s">
      <ObjectID>%s</ObjectID>
      <BrowseFlag>%s</BrowseFlag>
      <Filter>*</Filter>
      <StartingIndex>0</StartingIndex>
      <RequestedCount>0</RequestedCount>
      <SortCriteria></SortCriteria>
    </u:Browse>
  </s:Body>
</s:Envelope>`
)

// browseEnvelope extracts the Result document from a Browse response.
// Element matching is by local name, so the response's namespace prefixes
// do not matter.
type browseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		BrowseResponse struct {
			Result string `xml:"Result"`
		} `xml:"BrowseResponse"`
	} `xml:"Body"`
}

// SOAPContentDirectory implements adapter.ContentDirectory by posting
// UPnP ContentDirectory Browse actions to a device's control endpoint.
type SOAPContentDirectory struct {
	controlURL string
	client     *http.Client
}

var _ adapter.ContentDirectory = (*SOAPContentDirectory)(nil)

// NewSOAPContentDirectory creates a browse transport against the given
// ContentDirectory control URL.
func NewSOAPContentDirectory(controlURL string) *SOAPContentDirectory {
	return &SOAPContentDirectory{
		controlURL: controlURL,
		client:     &http.Client{Timeout: soapTimeout},
	}
}

// Browse issues one Browse action and returns the raw DIDL-Lite result
// document.
func (c *SOAPContentDirectory) Browse(ctx context.Context, objectID, browseFlag string) (string, error) {
	var envelope bytes.Buffer
	if err := xml.EscapeText(&envelope, []byte(objectID)); err != nil {
		return "", fmt.Errorf("escaping object ID: %w", err)
	}
	body := fmt.Sprintf(soapEnvelopeFormat, contentDirectoryService, envelope.String(), browseFlag)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.controlURL, bytes.NewReader([]byte(body)))
	if err != nil {
		return "", fmt.Errorf("building browse request: %w", err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", fmt.Sprintf(`"%s#%s"`, contentDirectoryService, browseAction))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting browse action: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxSOAPBodySize))
	if err != nil {
		return "", fmt.Errorf("reading browse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("browse action rejected: status %d", resp.StatusCode)
	}

	var parsed browseEnvelope
	if err := xml.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing browse response: %w", err)
	}
	if parsed.Body.BrowseResponse.Result == "" {
		return "", fmt.Errorf("browse response carries no result document")
	}

	return parsed.Body.BrowseResponse.Result, nil
}
