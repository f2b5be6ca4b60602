package assetupnp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finchley-audio/auriga-core/internal/adapter"
)

func TestSOAPBrowse(t *testing.T) {
	var gotAction, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAction = req.Header.Get("SOAPAction")
		body, _ := io.ReadAll(req.Body)
		gotBody = string(body)

		io.WriteString(w, `<?xml version="1.0"?>
			<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
			<s:Body><u:BrowseResponse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">
			<Result>&lt;DIDL-Lite/&gt;</Result>
			<NumberReturned>0</NumberReturned>
			</u:BrowseResponse></s:Body></s:Envelope>`)
	}))
	defer srv.Close()

	cd := NewSOAPContentDirectory(srv.URL)
	result, err := cd.Browse(context.Background(), "c-all", adapter.BrowseChildren)
	if err != nil {
		t.Fatalf("Browse() error: %v", err)
	}

	if result != "<DIDL-Lite/>" {
		t.Errorf("result = %q, want unescaped DIDL document", result)
	}
	if gotAction != `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"` {
		t.Errorf("SOAPAction = %q", gotAction)
	}
	if !strings.Contains(gotBody, "<ObjectID>c-all</ObjectID>") ||
		!strings.Contains(gotBody, "<BrowseFlag>BrowseDirectChildren</BrowseFlag>") {
		t.Errorf("request body missing browse arguments: %s", gotBody)
	}
}

func TestSOAPBrowseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cd := NewSOAPContentDirectory(srv.URL)
	if _, err := cd.Browse(context.Background(), "0", adapter.BrowseChildren); err == nil {
		t.Fatal("expected an error for a rejected browse action")
	}
}
