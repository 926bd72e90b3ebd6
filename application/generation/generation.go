// Package generation tracks page-structure invalidations. Work that spans an
// asynchronous gap captures a Token and checks it before touching the page.
package generation

import (
	"errors"
	"sync/atomic"
)

// Counter is incremented on every navigation or re-render.
type Counter struct {
	v atomic.Uint64
}

// Bump invalidates every token issued so far and returns the new generation.
func (c *Counter) Bump() uint64 {
	return c.v.Add(1)
}

// Current issues a token for the present generation.
func (c *Counter) Current() Token {
	return Token{c: c, gen: c.v.Load()}
}

// Load returns the present generation.
func (c *Counter) Load() uint64 {
	return c.v.Load()
}

// Token is the generation valid when some work was started.
type Token struct {
	c   *Counter
	gen uint64
}

// Valid reports whether no invalidation happened since the token was issued.
// A zero Token is never valid.
func (t Token) Valid() bool {
	return t.c != nil && t.c.v.Load() == t.gen
}

func (t Token) Generation() uint64 {
	return t.gen
}

// ErrStale is returned by work that noticed its token was invalidated.
var ErrStale = errors.New("generation: page changed since work started")

// Check returns ErrStale when the token is no longer valid.
func (t Token) Check() error {
	if !t.Valid() {
		return ErrStale
	}
	return nil
}
