package adapter

import (
	"errors"
	"strings"
	"testing"

	"github.com/finchley-audio/auriga-core/internal/device"
)

type fakeAmp struct {
	Amplifier
	name string
}

func ampFactory(name string) Factory[Amplifier] {
	return func(device.Descriptor, Options) (Amplifier, error) {
		return &fakeAmp{name: name}, nil
	}
}

func TestRegistryBindsByModel(t *testing.T) {
	r := NewRegistry[Amplifier]()
	r.Register("generic", ampFactory("generic"), "CXNv2", "Evo 150")

	a, err := r.Bind(device.Descriptor{ModelName: "Evo 150"}, "", Options{})
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if a.(*fakeAmp).name != "generic" {
		t.Errorf("bound %q, want generic", a.(*fakeAmp).name)
	}
}

func TestRegistryUnknownModel(t *testing.T) {
	r := NewRegistry[Amplifier]()
	r.Register("generic", ampFactory("generic"), "CXNv2")

	_, err := r.Bind(device.Descriptor{ModelName: "Mystery Box"}, "", Options{})
	if !errors.Is(err, ErrNoImplementation) {
		t.Fatalf("expected ErrNoImplementation, got %v", err)
	}
	if !strings.Contains(err.Error(), "Mystery Box") {
		t.Errorf("error should name the model: %v", err)
	}
}

func TestRegistryExplicitTypeBypassesModelMap(t *testing.T) {
	r := NewRegistry[Amplifier]()
	r.Register("first", ampFactory("first"), "CXNv2")
	r.Register("second", ampFactory("second"))

	// Model would match "first"; the explicit type must win.
	a, err := r.Bind(device.Descriptor{ModelName: "CXNv2"}, "second", Options{})
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if a.(*fakeAmp).name != "second" {
		t.Errorf("bound %q, want second", a.(*fakeAmp).name)
	}
}

func TestRegistryUnknownTypeFailsEvenForKnownModel(t *testing.T) {
	r := NewRegistry[Amplifier]()
	r.Register("first", ampFactory("first"), "CXNv2")

	_, err := r.Bind(device.Descriptor{ModelName: "CXNv2"}, "nonexistent", Options{})
	if !errors.Is(err, ErrNoImplementation) {
		t.Fatalf("expected ErrNoImplementation, got %v", err)
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("error should name the type: %v", err)
	}
}

func TestRegistryOverrideLastWins(t *testing.T) {
	r := NewRegistry[Amplifier]()
	r.Register("first", ampFactory("first"), "CXNv2")
	r.Register("second", ampFactory("second"))

	if err := r.OverrideModel("CXNv2", "second"); err != nil {
		t.Fatalf("OverrideModel() error: %v", err)
	}

	a, err := r.Bind(device.Descriptor{ModelName: "CXNv2"}, "", Options{})
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if a.(*fakeAmp).name != "second" {
		t.Errorf("bound %q, want second after override", a.(*fakeAmp).name)
	}
}

func TestRegistryOverrideUnknownType(t *testing.T) {
	r := NewRegistry[Amplifier]()

	if err := r.OverrideModel("CXNv2", "ghost"); !errors.Is(err, ErrNoImplementation) {
		t.Errorf("expected ErrNoImplementation, got %v", err)
	}
}
