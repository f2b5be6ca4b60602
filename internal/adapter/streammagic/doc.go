// Package streammagic implements adapters for Cambridge Audio StreamMagic
// devices speaking the SMOIP protocol.
//
// Two adapters share one transport layout:
//
//	            ws://<host>/smoip  (persistent, inbound snapshots)
//	 device  <======================================  channel worker
//	         ------------------------------------->
//	            GET /smoip/zone/state?param=value
//	            GET /smoip/zone/play_control?param=value
//	            (unary, fire-and-forget commands)
//
// The websocket worker owns the connection: it dials, sends the one fixed
// zone-state subscribe message, reads full snapshots until the connection
// drops, then redials after a fixed delay. Each accepted snapshot replaces
// the adapter's canonical state wholesale; untranslatable messages are
// dropped with the prior snapshot retained.
//
// Commands never mutate state. The device is the source of truth, so a
// change only becomes visible when the confirming snapshot arrives.
package streammagic
