package source

import "context"

// ContentProber answers whether a content source has produced anything
// new since the last generation. The prober itself lives upstream; the
// core only consumes its yes/no signal.
type ContentProber interface {
	HasNewContent(ctx context.Context, configID string) (bool, error)
}
