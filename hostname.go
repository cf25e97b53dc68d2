package timeexecution

import (
	"os"
	"sync"
)

// HostnameProvider supplies the identity of the executing machine for the hostname field.
type HostnameProvider interface {
	Hostname() string
}

// HostnameFunc adapts an ordinary function to the HostnameProvider interface.
type HostnameFunc func() string

// Hostname calls f.
func (f HostnameFunc) Hostname() string {
	return f()
}

// StaticHostname always reports the same host identity.
type StaticHostname string

// Hostname returns h.
func (h StaticHostname) Hostname() string {
	return string(h)
}

// OSHostname resolves the kernel hostname once and caches it. It reports "unknown" when the
// hostname cannot be resolved.
type OSHostname struct {
	once     sync.Once
	hostname string
}

// Hostname returns the cached kernel hostname.
func (h *OSHostname) Hostname() string {
	h.once.Do(func() {
		hostname, err := os.Hostname()
		if err != nil || hostname == "" {
			hostname = "unknown"
		}
		h.hostname = hostname
	})

	return h.hostname
}
