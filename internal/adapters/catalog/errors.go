package catalog

import "errors"

// ErrBadFeed means the feed file could not be parsed; nothing from it
// is loaded.
var ErrBadFeed = errors.New("malformed line feed")
