// Package orchestrator composes resolved devices into one controllable
// system.
//
//	                 +--------------+
//	 commands  --->  | Orchestrator |  ---> streamer adapter (mandatory)
//	 events    --->  |              |  ---> media server adapter (optional)
//	 state     <---  |              |  ---> amplifier adapter (optional)
//	                 +--------------+
//
// Construction resolves each role through the resolver's heuristic chains
// and binds adapters through the per-role registries. The streamer is
// mandatory; optional roles degrade to "absent" on any failure, logged as
// a warning, so playback never hinges on an amplifier or media server
// being reachable.
//
// All transport faults cross this boundary as *ProtocolFault values
// naming the attempted operation. Inbound protocol events pass through a
// single entrypoint gated by the streamer's active subscriptions.
package orchestrator
