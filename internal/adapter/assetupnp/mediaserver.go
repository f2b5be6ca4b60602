package assetupnp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/finchley-audio/auriga-core/internal/adapter"
	"github.com/finchley-audio/auriga-core/internal/device"
)

// MediaServerType is the explicit registry type name for this adapter.
const MediaServerType = "asset-upnp"

// MediaServerModels are the model identifiers this adapter registers for.
var MediaServerModels = []string{"Asset UPnP Server"}

// Browse path from the root container to the flat album listing. Asset
// organizes its tree as "Album / [All Albums]" by default.
const (
	rootContainerID = "0"
	albumPathStep   = "Album"
	allAlbumsStep   = "[All Albums]"
)

// classMusicAlbum marks containers that represent albums in browse
// listings.
const classMusicAlbum = "object.container.album.musicAlbum"

// MediaServer browses an Asset UPnP server through an injected
// ContentDirectory transport. The album listing is fetched once and
// cached; track and child listings go to the server every time.
type MediaServer struct {
	dev    device.Descriptor
	cd     adapter.ContentDirectory
	logger adapter.Logger

	mu     sync.Mutex
	albums []adapter.Album
}

var _ adapter.MediaServer = (*MediaServer)(nil)

// NewMediaServer binds an Asset UPnP server.
//
// Returns:
//   - *MediaServer: the bound adapter
//   - error: ErrNoContentDirectory when no browse transport was wired in
func NewMediaServer(dev device.Descriptor, opts adapter.Options) (*MediaServer, error) {
	if opts.ContentDirectory == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoContentDirectory, dev.FriendlyName)
	}

	s := &MediaServer{
		dev:    dev,
		cd:     opts.ContentDirectory,
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s, nil
}

// Device returns the bound descriptor.
func (s *MediaServer) Device() device.Descriptor {
	return s.dev
}

// Albums lists every album the server exposes. The first call walks the
// server's "Album / [All Albums]" containers; later calls return the
// cached listing.
func (s *MediaServer) Albums(ctx context.Context) ([]adapter.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.albums != nil {
		out := make([]adapter.Album, len(s.albums))
		copy(out, s.albums)
		return out, nil
	}

	byAlbumID, err := s.childIDByTitle(ctx, rootContainerID, albumPathStep)
	if err != nil {
		return nil, err
	}
	allAlbumsID, err := s.childIDByTitle(ctx, byAlbumID, allAlbumsStep)
	if err != nil {
		return nil, err
	}

	doc, err := s.browseChildren(ctx, allAlbumsID)
	if err != nil {
		return nil, err
	}

	albums := make([]adapter.Album, 0, len(doc.Containers))
	for _, c := range doc.Containers {
		if c.Class != "" && c.Class != classMusicAlbum {
			continue
		}
		albums = append(albums, adapter.Album{
			ID:       c.ID,
			ParentID: c.ParentID,
			Title:    c.Title,
			Artist:   c.Creator,
			Date:     c.Date,
			Genre:    c.Genre,
			ArtURL:   c.AlbumArtURI,
		})
	}

	s.albums = albums
	s.logger.Info("album listing cached", "server", s.dev.FriendlyName, "albums", len(albums))

	out := make([]adapter.Album, len(albums))
	copy(out, albums)
	return out, nil
}

// Tracks lists the tracks of one album in server order.
func (s *MediaServer) Tracks(ctx context.Context, albumID string) ([]adapter.Track, error) {
	doc, err := s.browseChildren(ctx, albumID)
	if err != nil {
		return nil, err
	}

	tracks := make([]adapter.Track, 0, len(doc.Items))
	for _, item := range doc.Items {
		uri, duration := item.firstResource()
		trackNum, _ := strconv.Atoi(strings.TrimSpace(item.TrackNumber))

		tracks = append(tracks, adapter.Track{
			ID:       item.ID,
			ParentID: item.ParentID,
			Title:    item.Title,
			Artist:   item.Artist,
			Album:    item.Album,
			Duration: duration,
			TrackNum: trackNum,
			URI:      uri,
			ArtURL:   item.AlbumArtURI,
		})
	}
	return tracks, nil
}

// Children lists the immediate children of a container, containers first
// in server order, then items.
func (s *MediaServer) Children(ctx context.Context, parentID string) ([]adapter.BrowseEntry, error) {
	doc, err := s.browseChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}

	entries := make([]adapter.BrowseEntry, 0, len(doc.Containers)+len(doc.Items))
	for _, c := range doc.Containers {
		entries = append(entries, adapter.BrowseEntry{
			ID:          c.ID,
			ParentID:    c.ParentID,
			Title:       c.Title,
			IsContainer: true,
		})
	}
	for _, item := range doc.Items {
		uri, _ := item.firstResource()
		entries = append(entries, adapter.BrowseEntry{
			ID:       item.ID,
			ParentID: item.ParentID,
			Title:    item.Title,
			URI:      uri,
		})
	}
	return entries, nil
}

// Metadata returns the raw DIDL-Lite metadata document for one object,
// suitable for handing to a streamer's play-by-metadata operation.
func (s *MediaServer) Metadata(ctx context.Context, id string) (string, error) {
	result, err := s.cd.Browse(ctx, id, adapter.BrowseMetadata)
	if err != nil {
		return "", fmt.Errorf("%w: object %q: %w", adapter.ErrBrowse, id, err)
	}
	return result, nil
}

// browseChildren fetches and parses the direct children of one container.
func (s *MediaServer) browseChildren(ctx context.Context, objectID string) (didlLite, error) {
	result, err := s.cd.Browse(ctx, objectID, adapter.BrowseChildren)
	if err != nil {
		return didlLite{}, fmt.Errorf("%w: container %q: %w", adapter.ErrBrowse, objectID, err)
	}

	doc, err := parseDIDL(result)
	if err != nil {
		return didlLite{}, fmt.Errorf("%w: container %q: %w", adapter.ErrBrowse, objectID, err)
	}
	return doc, nil
}

// childIDByTitle finds the child container of parentID carrying an exact
// title.
func (s *MediaServer) childIDByTitle(ctx context.Context, parentID, title string) (string, error) {
	doc, err := s.browseChildren(ctx, parentID)
	if err != nil {
		return "", err
	}

	for _, c := range doc.Containers {
		if c.Title == title {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no container %q under %q", adapter.ErrNotFound, title, parentID)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
