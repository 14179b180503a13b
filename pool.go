package main

// ResourcePool is the shared material store filled by mining and drained by repair
type ResourcePool struct {
	counts map[Resource]int
}

// NewResourcePool creates an empty pool
func NewResourcePool() *ResourcePool {
	return &ResourcePool{counts: make(map[Resource]int, len(Resources))}
}

// Count returns the amount of r in the pool
func (p *ResourcePool) Count(r Resource) int {
	return p.counts[r]
}

// Add deposits n units of r
func (p *ResourcePool) Add(r Resource, n int) {
	if n <= 0 {
		return
	}
	p.counts[r] += n
}

// Take withdraws n units of r. Returns false and leaves the pool unchanged
// if there is not enough.
func (p *ResourcePool) Take(r Resource, n int) bool {
	if n <= 0 {
		return true
	}
	if p.counts[r] < n {
		return false
	}
	p.counts[r] -= n
	return true
}

// Snapshot returns a copy of every count, including zero entries
func (p *ResourcePool) Snapshot() map[Resource]int {
	out := make(map[Resource]int, len(Resources))
	for _, r := range Resources {
		out[r] = p.counts[r]
	}
	return out
}
