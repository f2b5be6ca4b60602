// Package discovery provides the device discovery cache for Auriga Core.
//
// Discovery runs exactly once per process: a single blocking, bounded scan
// performed during system construction. The Cache memoizes the resulting
// device set; every later call returns the same snapshot, so role
// resolution stays a pure function of (snapshot, hint). There is no
// invalidation or refresh - restarting the process is the refresh.
//
// The scan transport is a collaborator behind the Scanner interface. This
// package ships two pieces:
//
//   - HTTPDescriptionClient fetches and parses a single UPnP device
//     description document from its location URL.
//   - StaticScanner performs the "scan" over a fixed list of description
//     URLs, for networks where SSDP multicast is unavailable. An SSDP-backed
//     Scanner can be dropped in without touching anything above it.
//
// # Usage
//
//	fetcher := discovery.NewHTTPDescriptionClient()
//	scanner := discovery.NewStaticScanner(cfg.Discovery.Locations, fetcher)
//	cache := discovery.NewCache(discovery.CombinedDiscoverer{
//	    Scanner:            scanner,
//	    DescriptionFetcher: fetcher,
//	})
//
//	devices, err := cache.Devices(ctx, 5*time.Second)
package discovery
