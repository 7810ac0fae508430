// Package hostmap maps logical service names to container IP addresses.
//
// Go has no process-wide resolver hook to splice into, so the mapping is
// an explicit table layered in front of an ordinary resolver: names in
// the table resolve to their installed address, everything else falls
// through to the wrapped resolver (net.DefaultResolver unless replaced).
// The table satisfies forward and reverse lookup for its entries and can
// be spliced into network clients via DialContext, e.g.:
//
//	transport := &http.Transport{DialContext: hostmap.Default.DialContext}
//
// Default is shared process-wide. Two fixtures installing the same name
// concurrently race on which address wins; the table itself is
// thread-safe but offers no coordination beyond last-install-wins.
package hostmap

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
)

// Fallback resolves names and addresses the table has no entry for.
// *net.Resolver satisfies it.
type Fallback interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Table is a name-to-address override layered over a fallback resolver.
type Table struct {
	mu       sync.RWMutex
	entries  map[string]netip.Addr
	fallback Fallback
}

// Default is the process-wide table used by gangway fixtures unless a
// dedicated table is supplied.
var Default = New()

// New returns an empty table backed by net.DefaultResolver.
func New() *Table {
	return NewWithFallback(net.DefaultResolver)
}

// NewWithFallback returns an empty table backed by the given resolver.
func NewWithFallback(fallback Fallback) *Table {
	return &Table{
		entries:  make(map[string]netip.Addr),
		fallback: fallback,
	}
}

// Install maps host to ip. A later Install for the same host supersedes
// the earlier one; different hosts coexist. The ip must be a literal
// IPv4 or IPv6 address.
func (t *Table) Install(host, ip string) error {
	if host == "" {
		return fmt.Errorf("hostmap: host must not be empty")
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fmt.Errorf("hostmap: invalid address %q for host %q: %w", ip, host, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[host] = addr
	return nil
}

// Uninstall removes the entry for host, if any.
func (t *Table) Uninstall(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, host)
}

// Reset removes every entry.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]netip.Addr)
}

// Lookup returns the installed address for host, if present.
func (t *Table) Lookup(host string) (netip.Addr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.entries[host]
	return addr, ok
}

// LookupHost resolves host through the table, falling back to the
// wrapped resolver for names without an entry.
func (t *Table) LookupHost(ctx context.Context, host string) ([]string, error) {
	if addr, ok := t.Lookup(host); ok {
		return []string{addr.String()}, nil
	}
	return t.fallback.LookupHost(ctx, host)
}

// LookupAddr performs a reverse lookup: installed addresses answer with
// their host name, anything else falls back to the wrapped resolver.
func (t *Table) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	parsed, err := netip.ParseAddr(addr)
	if err == nil {
		t.mu.RLock()
		for host, installed := range t.entries {
			if installed == parsed {
				t.mu.RUnlock()
				return []string{host}, nil
			}
		}
		t.mu.RUnlock()
	}
	return t.fallback.LookupAddr(ctx, addr)
}

// DialContext dials address after resolving its host part through the
// table. It has the signature expected by net.Dialer-style hooks such as
// http.Transport.DialContext.
func (t *Table) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("hostmap: invalid address %q: %w", address, err)
	}
	if addr, ok := t.Lookup(host); ok {
		address = net.JoinHostPort(addr.String(), port)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// Install maps host to ip in the Default table.
func Install(host, ip string) error {
	return Default.Install(host, ip)
}

// Uninstall removes host from the Default table.
func Uninstall(host string) {
	Default.Uninstall(host)
}

// Lookup returns the installed address for host in the Default table.
func Lookup(host string) (netip.Addr, bool) {
	return Default.Lookup(host)
}
