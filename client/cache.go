package client

import (
	"sync"

	"ecobhandu-be/models"
)

// reportCache holds the last confirmed server copy of each report, keyed by id.
// Entries are only ever replaced by a server response or dropped; nothing is
// written to them optimistically.
type reportCache struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

func newReportCache() *reportCache {
	return &reportCache{reports: make(map[string]models.Report)}
}

func (c *reportCache) get(id string) (models.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[id]
	return r, ok
}

func (c *reportCache) put(r *models.Report) {
	if r == nil || r.ID.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[r.ID.Hex()] = *r
}

func (c *reportCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, id)
}

func (c *reportCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = make(map[string]models.Report)
}

func (c *reportCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}
