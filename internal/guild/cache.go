package guild

import (
	"sort"
	"sync"
)

// Cache owns the state of every observed guild. All access goes through its methods;
// mutation only happens while holding the lock.
type Cache struct {
	mu     sync.Mutex
	guilds map[string]*State

	// seq issues tickets to rebuilds and removals; applied holds the newest ticket
	// that changed each guild
	seq     uint64
	applied map[string]uint64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		guilds:  make(map[string]*State),
		applied: make(map[string]uint64),
	}
}

func (c *Cache) ticketLocked() uint64 {
	c.seq++
	return c.seq
}

// Get returns a copy of a guild's state
func (c *Cache) Get(guildID string) (*State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.guilds[guildID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Upsert builds fresh state and replaces the cached entry with it. The builder runs
// outside the lock; if it fails the existing entry is left untouched and the error is
// returned. A build that started before a later rebuild or removal of the same guild
// was applied is discarded with ErrSuperseded.
func (c *Cache) Upsert(guildID string, build func() (*State, error)) error {
	c.mu.Lock()
	ticket := c.ticketLocked()
	c.mu.Unlock()

	fresh, err := build()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applied[guildID] > ticket {
		return ErrSuperseded
	}
	c.applied[guildID] = ticket

	if old, ok := c.guilds[guildID]; ok {
		merge(old, fresh)
	}
	c.guilds[guildID] = fresh
	return nil
}

// merge carries runtime state from old into fresh. Rostered players keep their in-flight
// notification but take bests from the roster; players no longer listed are dropped.
// Unrostered guilds keep every player verbatim.
func merge(old, fresh *State) {
	if !fresh.RosterGated {
		fresh.Players = old.Players
		return
	}

	for key, p := range fresh.Players {
		if prev, ok := old.Players[key]; ok {
			p.LastNotification = prev.LastNotification
		}
	}
}

// Remove drops a guild. Rebuilds already in flight for it are discarded.
func (c *Cache) Remove(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied[guildID] = c.ticketLocked()
	delete(c.guilds, guildID)
}

// ForEachMutable runs fn on every guild, in guild ID order, under a single hold of the
// lock. fn may mutate the state it is given.
func (c *Cache) ForEachMutable(fn func(guildID string, s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.idsLocked() {
		fn(id, c.guilds[id])
	}
}

// IDs returns the cached guild IDs in sorted order
func (c *Cache) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idsLocked()
}

// Len returns the number of cached guilds
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.guilds)
}

func (c *Cache) idsLocked() []string {
	ids := make([]string, 0, len(c.guilds))
	for id := range c.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
