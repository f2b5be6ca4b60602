package assetupnp

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// didlLite is the root of a DIDL-Lite browse result. Element matching is
// by local name, so the dc/upnp namespace prefixes in server responses
// are accepted without explicit namespace declarations.
type didlLite struct {
	XMLName    xml.Name        `xml:"DIDL-Lite"`
	Containers []didlContainer `xml:"container"`
	Items      []didlItem      `xml:"item"`
}

type didlContainer struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parentID,attr"`
	Title       string `xml:"title"`
	Creator     string `xml:"creator"`
	Date        string `xml:"date"`
	Artist      string `xml:"artist"`
	Genre       string `xml:"genre"`
	AlbumArtURI string `xml:"albumArtURI"`
	Class       string `xml:"class"`
}

type didlItem struct {
	ID          string    `xml:"id,attr"`
	ParentID    string    `xml:"parentID,attr"`
	Title       string    `xml:"title"`
	Creator     string    `xml:"creator"`
	Date        string    `xml:"date"`
	Artist      string    `xml:"artist"`
	Album       string    `xml:"album"`
	Genre       string    `xml:"genre"`
	AlbumArtURI string    `xml:"albumArtURI"`
	TrackNumber string    `xml:"originalTrackNumber"`
	Class       string    `xml:"class"`
	Resources   []didlRes `xml:"res"`
}

type didlRes struct {
	Duration string `xml:"duration,attr"`
	URI      string `xml:",chardata"`
}

// firstResource returns the item's first non-empty resource URI and its
// duration attribute.
func (i didlItem) firstResource() (uri, duration string) {
	for _, r := range i.Resources {
		if u := strings.TrimSpace(r.URI); u != "" {
			return u, r.Duration
		}
	}
	return "", ""
}

func parseDIDL(document string) (didlLite, error) {
	var doc didlLite
	if err := xml.Unmarshal([]byte(document), &doc); err != nil {
		return didlLite{}, fmt.Errorf("parsing DIDL-Lite result: %w", err)
	}
	return doc, nil
}
