//go:build !linux

package mpris

import "github.com/mgilbert/soundshelf/internal/playback"

// Adapter is a no-op on non-Linux platforms: MPRIS is D-Bus-specific and
// has no equivalent control surface elsewhere.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ *playback.Context, _ *playback.CommandChannel) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
