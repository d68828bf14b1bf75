package metrics

import "time"

// StatsFunc reports the current live entity counts for the workspace
// being monitored; it is typically (*workspace.Workspace).Stats
// adapted to this narrower signature by the caller, keeping this
// package free of a dependency on pkg/workspace.
type StatsFunc func() (nodes, atoms, edges int, err error)

// Collector periodically samples entity counts and publishes them as
// gauges.
type Collector struct {
	source StatsFunc
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over source.
func NewCollector(source StatsFunc) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15-second interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	nodes, atoms, edges, err := c.source()
	if err != nil {
		return
	}
	NodesTotal.Set(float64(nodes))
	AtomsTotal.Set(float64(atoms))
	EdgesTotal.Set(float64(edges))
}
