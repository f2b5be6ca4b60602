// Package adapter defines the contracts between the orchestrator and
// device-specific implementations, plus the registry that binds discovered
// devices to them.
//
// Each device role has its own small interface (Streamer, MediaServer,
// Amplifier). Concrete implementations live in subpackages and register
// themselves in a Registry keyed by device model name; configuration can
// override the model mapping or force an adapter type outright.
//
// Resolution order inside a registry:
//
//	explicit type name (config override, bypasses the model map)
//	        |
//	        v
//	model name from the device descriptor
//	        |
//	        v
//	ErrNoImplementation naming whichever key missed
//
// Adapters push state outward through Options.OnUpdate rather than being
// polled; every snapshot they hand over is a copy the receiver owns.
package adapter
