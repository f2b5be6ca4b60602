package streammagic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	zoneStatePath   = "/smoip/zone/state"
	playControlPath = "/smoip/zone/play_control"

	defaultCommandTimeout = 10 * time.Second
)

// controlClient issues the unary SMOIP control calls. Commands are
// fire-and-forget: the response body is drained and discarded, only the
// transport outcome is reported.
type controlClient interface {
	zoneState(ctx context.Context, param, value string) error
	playControl(ctx context.Context, param, value string) error
}

// smoipClient is the HTTP implementation of controlClient against one
// StreamMagic host.
type smoipClient struct {
	base   string
	client *http.Client
}

func newSMOIPClient(host string) *smoipClient {
	return &smoipClient{
		base:   "http://" + host,
		client: &http.Client{Timeout: defaultCommandTimeout},
	}
}

func (c *smoipClient) zoneState(ctx context.Context, param, value string) error {
	return c.get(ctx, zoneStatePath, param, value)
}

func (c *smoipClient) playControl(ctx context.Context, param, value string) error {
	return c.get(ctx, playControlPath, param, value)
}

func (c *smoipClient) get(ctx context.Context, path, param, value string) error {
	endpoint := fmt.Sprintf("%s%s?%s=%s", c.base, path, param, url.QueryEscape(value))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building command request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s=%s: %w", ErrCommand, path, param, value, err)
	}
	defer resp.Body.Close()

	// Response body is uninterpreted; drain it so the connection is reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s=%s: status %d", ErrCommand, path, param, value, resp.StatusCode)
	}
	return nil
}
