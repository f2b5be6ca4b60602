// Package mqtt publishes Auriga's canonical state onto an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained state publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The core is publish-only. Every accepted device update and the
// aggregated system snapshot are mirrored onto retained topics so
// external consumers (dashboards, automations, loggers) always see the
// current state without querying the core:
//
//	Auriga Core → MQTT Broker → external consumers
//
// Topics:
//
//	auriga/state/<role>    per-device canonical snapshot (retained)
//	auriga/state/system    aggregated system snapshot (retained)
//	auriga/system/status   online/offline status, LWT on crash (retained)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	pub := mqtt.NewStatePublisher(client, log)
//	defer pub.Close()
//
//	orch.OnDeviceUpdate(func(role device.Role, _ string, state *device.State) {
//	    pub.PublishDeviceState(role, state)
//	})
package mqtt
