// Package assetupnp implements a media server adapter for dBpoweramp's
// Asset UPnP server.
//
// Asset presents its library as a browse tree; the flat album listing
// lives under "Album / [All Albums]". The adapter walks that path once,
// caches the album listing, and parses every browse result from the
// server's DIDL-Lite documents. The ContentDirectory transport itself is
// injected, so tests run against canned documents.
package assetupnp
