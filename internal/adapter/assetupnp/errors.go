package assetupnp

import "errors"

// ErrNoContentDirectory indicates the adapter was built without a browse
// transport.
var ErrNoContentDirectory = errors.New("assetupnp: no content directory transport")
