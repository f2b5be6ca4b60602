package streammagic

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/finchley-audio/auriga-core/internal/adapter"
	"github.com/finchley-audio/auriga-core/internal/device"
)

// recordingClient captures every outbound control call.
type recordingClient struct {
	mu    sync.Mutex
	calls []string
}

func (c *recordingClient) zoneState(_ context.Context, param, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf("zone_state %s=%s", param, value))
	return nil
}

func (c *recordingClient) playControl(_ context.Context, param, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf("play_control %s=%s", param, value))
	return nil
}

func (c *recordingClient) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func testDescriptor() device.Descriptor {
	return device.Descriptor{
		UDN:          "uuid:cxn",
		FriendlyName: "Lounge",
		ModelName:    "CXNv2",
		Manufacturer: "Cambridge Audio",
		Location:     "http://192.168.1.40:8080/description.xml",
	}
}

// update captures one OnUpdate invocation.
type update struct {
	source string
	state  *device.State
}

func newTestAmplifier(t *testing.T, updates *[]update) (*Amplifier, *recordingClient) {
	t.Helper()

	var mu sync.Mutex
	a, err := NewAmplifier(testDescriptor(), adapter.Options{
		OnUpdate: func(source string, state *device.State) {
			mu.Lock()
			defer mu.Unlock()
			*updates = append(*updates, update{source: source, state: state})
		},
	})
	if err != nil {
		t.Fatalf("NewAmplifier() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	ctl := &recordingClient{}
	a.ctl = ctl
	return a, ctl
}

func TestPreAmpSnapshotTranslation(t *testing.T) {
	var updates []update
	a, _ := newTestAmplifier(t, &updates)

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": true, "power": true, "mute": false, "volume_percent": 42}}
	}`))

	state := a.State()
	if state == nil {
		t.Fatal("expected a snapshot")
	}
	for _, cap := range []device.Capability{device.CapVolume, device.CapMute, device.CapVolumeStep} {
		if !state.HasCapability(cap) {
			t.Errorf("missing capability %q", cap)
		}
	}
	if state.Power != device.PowerOn {
		t.Errorf("power = %q, want on", state.Power)
	}
	if state.Mute != device.MuteOff {
		t.Errorf("mute = %q, want off", state.Mute)
	}
	if state.Volume == nil || *state.Volume != 0.42 {
		t.Errorf("volume = %v, want 0.42", state.Volume)
	}
	if len(updates) != 1 || updates[0].source != "smoip" {
		t.Errorf("updates = %+v, want one from smoip", updates)
	}
}

func TestControlBusSnapshotTranslation(t *testing.T) {
	var updates []update
	a, _ := newTestAmplifier(t, &updates)

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": false, "cbus": "amplifier", "power": false}}
	}`))

	state := a.State()
	if state == nil {
		t.Fatal("expected a snapshot")
	}
	if !state.HasCapability(device.CapVolumeStep) {
		t.Error("missing volume-step capability")
	}
	if state.HasCapability(device.CapVolume) || state.HasCapability(device.CapMute) {
		t.Errorf("unexpected capabilities: %v", state.Capabilities)
	}
	if state.Power != device.PowerOff {
		t.Errorf("power = %q, want off", state.Power)
	}
	if state.Mute != device.MuteUnknown {
		t.Errorf("mute = %q, want unknown", state.Mute)
	}
	if state.Volume != nil {
		t.Errorf("volume = %v, want absent", *state.Volume)
	}
}

func TestNoControlPathSnapshotIsPowerOnly(t *testing.T) {
	var updates []update
	a, _ := newTestAmplifier(t, &updates)

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": false, "cbus": "none", "power": true}}
	}`))

	state := a.State()
	if state == nil {
		t.Fatal("expected a snapshot")
	}
	if len(state.Capabilities) != 0 {
		t.Errorf("capabilities = %v, want none", state.Capabilities)
	}
	if state.Power != device.PowerOn {
		t.Errorf("power = %q, want on", state.Power)
	}
}

func TestMalformedMessageRetainsPriorSnapshot(t *testing.T) {
	var updates []update
	a, _ := newTestAmplifier(t, &updates)

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": true, "power": true, "mute": false, "volume_percent": 42}}
	}`))

	before := a.State()
	priorUpdates := len(updates)

	malformed := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"path": "/zone/position", "type": "update", "params": {"data": {"power": true}}}`),
		[]byte(`{"path": "/zone/state", "type": "response", "params": {"data": {"power": true}}}`),
		[]byte(`{"path": "/zone/state", "type": "update", "params": {"data": {"pre_amp_mode": true, "power": true}}}`),
		[]byte(`{"path": "/zone/state", "type": "update", "params": {"data": {"pre_amp_mode": true}}}`),
	}
	for _, payload := range malformed {
		a.handleStateMessage(payload)
	}

	after := a.State()
	if after.Power != before.Power || *after.Volume != *before.Volume ||
		len(after.Capabilities) != len(before.Capabilities) {
		t.Errorf("snapshot changed after malformed messages: %+v -> %+v", before, after)
	}
	if len(updates) != priorUpdates {
		t.Errorf("malformed messages triggered %d notifications", len(updates)-priorUpdates)
	}
}

func TestCommandsGatedByCapabilities(t *testing.T) {
	var updates []update
	a, ctl := newTestAmplifier(t, &updates)
	ctx := context.Background()

	// Control-bus mode: only volume-step is available.
	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": false, "cbus": "amplifier", "power": true}}
	}`))

	if err := a.SetVolume(ctx, 0.5); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if err := a.SetMute(ctx, true); err != nil {
		t.Fatalf("SetMute() error: %v", err)
	}
	if calls := ctl.recorded(); len(calls) != 0 {
		t.Errorf("gated commands made outbound calls: %v", calls)
	}

	if err := a.VolumeUp(ctx); err != nil {
		t.Fatalf("VolumeUp() error: %v", err)
	}
	if calls := ctl.recorded(); len(calls) != 1 || calls[0] != "zone_state volume_step_change=1" {
		t.Errorf("calls = %v, want the single step command", calls)
	}
}

func TestCommandsInPreAmpMode(t *testing.T) {
	var updates []update
	a, ctl := newTestAmplifier(t, &updates)
	ctx := context.Background()

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": true, "power": true, "mute": true, "volume_percent": 30}}
	}`))

	if err := a.SetVolume(ctx, 0.425); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if err := a.MuteToggle(ctx); err != nil {
		t.Fatalf("MuteToggle() error: %v", err)
	}

	want := []string{"zone_state volume_percent=43", "zone_state mute=false"}
	calls := ctl.recorded()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestCommandsBeforeFirstSnapshotAreNoOps(t *testing.T) {
	var updates []update
	a, ctl := newTestAmplifier(t, &updates)
	ctx := context.Background()

	if err := a.SetVolume(ctx, 0.5); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if err := a.VolumeUp(ctx); err != nil {
		t.Fatalf("VolumeUp() error: %v", err)
	}
	if calls := ctl.recorded(); len(calls) != 0 {
		t.Errorf("commands before any snapshot made calls: %v", calls)
	}
	if a.State() != nil {
		t.Error("expected nil state before first snapshot")
	}
}

func TestStateReturnsCopies(t *testing.T) {
	var updates []update
	a, _ := newTestAmplifier(t, &updates)

	a.handleStateMessage([]byte(`{
		"path": "/zone/state",
		"type": "update",
		"params": {"data": {"pre_amp_mode": true, "power": true, "mute": false, "volume_percent": 42}}
	}`))

	first := a.State()
	*first.Volume = 0.99
	first.Capabilities[0] = "tampered"

	second := a.State()
	if *second.Volume != 0.42 {
		t.Errorf("volume = %v after tampering with a copy, want 0.42", *second.Volume)
	}
	if second.Capabilities[0] == "tampered" {
		t.Error("capability slice shared between copies")
	}
}
