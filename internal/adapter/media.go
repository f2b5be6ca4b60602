package adapter

import "context"

// Browse flags for ContentDirectory.Browse, mirroring the UPnP
// ContentDirectory service.
const (
	BrowseChildren = "BrowseDirectChildren"
	BrowseMetadata = "BrowseMetadata"
)

// ContentDirectory is the transport a media server adapter browses
// through. Implementations issue ContentDirectory Browse actions and
// return the raw DIDL-Lite result document.
type ContentDirectory interface {
	Browse(ctx context.Context, objectID, browseFlag string) (string, error)
}

// Album is a browsable album container.
type Album struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Date     string `json:"date"`
	Genre    string `json:"genre"`
	ArtURL   string `json:"art_url"`
}

// Track is one playable item inside an album.
type Track struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration string `json:"duration"`
	TrackNum int    `json:"track_num"`
	URI      string `json:"uri"`
	ArtURL   string `json:"art_url"`
}

// BrowseEntry is a generic child listing entry. Containers have
// IsContainer set; items carry a playable URI.
type BrowseEntry struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id"`
	Title       string `json:"title"`
	IsContainer bool   `json:"is_container"`
	URI         string `json:"uri,omitempty"`
}
