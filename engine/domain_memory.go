package engine

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// hostEntry stores the preferred engine for a host with a TTL.
type hostEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers, per host, the engine whose snapshot was accepted
// last time. Entries expire after the configured TTL and are pruned
// periodically. A nil *DomainMemory remembers nothing.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]hostEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	stop    sync.Once
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts
// a background goroutine that prunes expired entries every interval.
func NewDomainMemory(ttl, pruneInterval time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]hostEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if pruneInterval > 0 {
		go dm.cleanupLoop(pruneInterval)
	}
	return dm
}

// Get returns the remembered engine name for a host, or "" if not found / expired.
func (dm *DomainMemory) Get(host string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	entry, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(entry.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return entry.engineName
}

// Set records which engine produced the accepted snapshot for a host.
func (dm *DomainMemory) Set(host, engineName string) {
	if dm == nil || host == "" {
		return
	}
	dm.mu.Lock()
	dm.entries[host] = hostEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
	dm.mu.Unlock()
}

// Delete forgets a host (e.g. after the remembered engine fails).
func (dm *DomainMemory) Delete(host string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.entries, host)
	dm.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (dm *DomainMemory) Len() int {
	if dm == nil {
		return 0
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	if dm == nil {
		return
	}
	dm.stop.Do(func() { close(dm.done) })
}

// prune deletes expired entries.
func (dm *DomainMemory) prune() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for host, entry := range dm.entries {
		if now.After(entry.expiresAt) {
			delete(dm.entries, host)
		}
	}
}

func (dm *DomainMemory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}

// hostOf returns the lowercased hostname of a URL, or "" when unparsable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
