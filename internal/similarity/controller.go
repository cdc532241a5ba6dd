// Package similarity switches the view between catalog browsing and image-similarity
// results, and hosts the collaborators that acquire those results.
package similarity

import (
	"sync"

	"finitefield.org/catalog-client/internal/catalog"
)

// Controller owns the SimilarityState. It never touches the catalog Query or DisplayState.
type Controller struct {
	mu       sync.Mutex
	state    catalog.SimilarityState
	listener func(catalog.SimilarityState)
}

// NewController returns an inactive controller. listener may be nil.
func NewController(listener func(catalog.SimilarityState)) *Controller {
	return &Controller{
		state:    catalog.SimilarityState{ResultItems: []catalog.Product{}},
		listener: listener,
	}
}

// Activate shows results instead of the catalog page.
func (c *Controller) Activate(results []catalog.Product) {
	c.set(catalog.SimilarityState{Active: true, ResultItems: catalog.CloneProducts(results)})
}

// Deactivate returns to catalog browsing and drops the results.
func (c *Controller) Deactivate() {
	c.set(catalog.SimilarityState{ResultItems: []catalog.Product{}})
}

// State returns a snapshot of the similarity state.
func (c *Controller) State() catalog.SimilarityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) set(next catalog.SimilarityState) {
	c.mu.Lock()
	c.state = next
	snapshot := next.Clone()
	c.mu.Unlock()

	if c.listener != nil {
		c.listener(snapshot)
	}
}
