package sink

import (
	"context"
	"strings"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// Router dispatches to a sink by destination scheme. Destinations without a
// scheme go to the "file" sink.
type Router struct {
	sinks map[string]Sink
}

// NewRouter returns a router with a file sink registered for "file".
func NewRouter(file Sink) *Router {
	r := &Router{sinks: make(map[string]Sink)}
	if file != nil {
		r.Register("file", file)
	}
	return r
}

// Register routes destinations of the form scheme://... to s.
func (r *Router) Register(scheme string, s Sink) *Router {
	r.sinks[scheme] = s
	return r
}

// Save implements Sink.
func (r *Router) Save(ctx context.Context, learner interface{}, destination string) error {
	scheme := "file"
	if i := strings.Index(destination, "://"); i > 0 {
		scheme = destination[:i]
	}
	s, ok := r.sinks[scheme]
	if !ok {
		return errors.NewPersistenceError(destination, errors.Newf("no sink registered for scheme %q", scheme))
	}
	return s.Save(ctx, learner, destination)
}
