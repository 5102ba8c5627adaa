// Package trace holds user-supplied trace context that is attached to every
// span produced by the tracing middleware: session id, user id, tags, and
// free-form metadata.
//
// There are two ways to supply context:
//
//  1. The process-wide default [Store], mutated via the package-level
//     helpers ([SetSessionID], [SetUserID], [AddTags], [SetMetadata]).
//     Every in-flight request reads it at span-close time, so values set
//     here bleed across concurrent requests. This mirrors the behavior of
//     single-threaded callers that "set once, applies to next spans".
//
//  2. An immutable [Context] value threaded through a request's
//     context.Context via [WithContext]. When present it takes precedence
//     over the default store for that request only, so concurrent requests
//     never observe each other's session or user.
//
// Prefer (2) for anything concurrent.
package trace

import (
	"context"
	"encoding/json"
	"sync"

	"go.opentelemetry.io/otel/attribute"
)

// Context is a point-in-time set of contextual trace attributes.
// Zero-value fields are omitted from spans.
type Context struct {
	SessionID string
	UserID    string
	Tags      []string
	Metadata  any
}

// IsZero reports whether no field is set.
func (c Context) IsZero() bool {
	return c.SessionID == "" && c.UserID == "" && len(c.Tags) == 0 && c.Metadata == nil
}

// Attributes converts the context to span attributes, including only the
// fields that are set. Tags and metadata are JSON-encoded; encoding failures
// drop the attribute rather than erroring.
func (c Context) Attributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if c.SessionID != "" {
		attrs = append(attrs, attribute.String("session.id", c.SessionID))
	}
	if c.UserID != "" {
		attrs = append(attrs, attribute.String("user.id", c.UserID))
	}
	if len(c.Tags) > 0 {
		if b, err := json.Marshal(c.Tags); err == nil {
			attrs = append(attrs, attribute.String("tags", string(b)))
		}
	}
	if c.Metadata != nil {
		if b, err := json.Marshal(c.Metadata); err == nil {
			attrs = append(attrs, attribute.String("metadata", string(b)))
		}
	}
	return attrs
}

// Store is a concurrency-safe holder of trace context. All mutators may be
// called from any goroutine; Snapshot returns an internally consistent copy
// and never observes a partially applied write.
type Store struct {
	mu  sync.RWMutex
	ctx Context
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// SetSessionID sets the session id attached to subsequent spans.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.SessionID = id
}

// SetUserID sets the user id attached to subsequent spans.
func (s *Store) SetUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.UserID = id
}

// AddTags unions the given tags with the existing tag set.
// Duplicates are ignored; first-seen order is preserved.
func (s *Store) AddTags(tags ...string) {
	if len(tags) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.ctx.Tags))
	for _, t := range s.ctx.Tags {
		seen[t] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		s.ctx.Tags = append(s.ctx.Tags, t)
	}
}

// SetMetadata replaces the metadata value attached to subsequent spans.
// The value must be JSON-encodable.
func (s *Store) SetMetadata(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Metadata = v
}

// Clear removes all context values.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = Context{}
}

// Snapshot returns a consistent copy of the current context. The returned
// value is owned by the caller; later store mutations do not affect it.
func (s *Store) Snapshot() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.ctx
	if len(c.Tags) > 0 {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}

// defaultStore is the process-wide store read by the middleware when no
// per-request Context is present.
var defaultStore = NewStore()

// DefaultStore returns the process-wide store.
func DefaultStore() *Store {
	return defaultStore
}

// SetSessionID sets the session id on the default store.
func SetSessionID(id string) { defaultStore.SetSessionID(id) }

// SetUserID sets the user id on the default store.
func SetUserID(id string) { defaultStore.SetUserID(id) }

// AddTags unions tags into the default store.
func AddTags(tags ...string) { defaultStore.AddTags(tags...) }

// SetMetadata replaces the metadata on the default store.
func SetMetadata(v any) { defaultStore.SetMetadata(v) }

// Clear removes all values from the default store.
func Clear() { defaultStore.Clear() }

// Snapshot returns a copy of the default store's context.
func Snapshot() Context { return defaultStore.Snapshot() }

type contextKey struct{}

// WithContext returns a context.Context carrying tc. Spans produced for
// requests made with the returned context use tc instead of the default
// store. The value is copied; the caller may reuse or modify tc afterwards.
func WithContext(ctx context.Context, tc Context) context.Context {
	if len(tc.Tags) > 0 {
		tc.Tags = append([]string(nil), tc.Tags...)
	}
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the Context carried by ctx, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}
