package httpclient

import "sync/atomic"

// Credential holds a secret that can be rotated while requests are in flight.
type Credential struct {
	v atomic.Pointer[string]
}

// NewCredential returns a credential initialised to value.
func NewCredential(value string) *Credential {
	c := &Credential{}
	c.Set(value)
	return c
}

// Value returns the current secret. A nil credential yields "".
func (c *Credential) Value() string {
	if c == nil {
		return ""
	}
	if p := c.v.Load(); p != nil {
		return *p
	}
	return ""
}

// Set replaces the secret; subsequent requests observe the new value.
func (c *Credential) Set(value string) {
	c.v.Store(&value)
}
