package svgrender

import (
	"github.com/benoitkugler/svgcomp/svglog"
)

// RenderState is the status of a render. It starts Ok,
// and switches to Fatal when an unrecoverable condition occurs:
// drawing then stops, but the traversal returns normally so that
// the layers are released.
// The transition is one way and only the first reason is kept.
type RenderState struct {
	err error
}

// Ok returns true if no fatal condition occurred.
func (s *RenderState) Ok() bool { return s.err == nil }

// Fatal aborts the render. Only the first reason is kept.
func (s *RenderState) Fatal(reason error) {
	if s.err != nil {
		return
	}
	s.err = reason
	svglog.Logger().Warn("rendering aborted", "reason", reason)
}

// Err returns the reason of the abort, or nil.
func (s *RenderState) Err() error { return s.err }
