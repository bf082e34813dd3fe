package abstraction

import (
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

// Router dispatches to a precomputed ProductionTable per street when one has
// been loaded, and falls back to the zero-precomputation heuristic
// otherwise. The trainer always has a usable Bucketer this way, even before
// any tables have been built.
type Router struct {
	tables   [4]*ProductionTable // indexed by Street (Preflop..River)
	fallback FallbackBucketer
}

func NewRouter() *Router {
	return &Router{fallback: NewFallbackBucketer()}
}

// SetTable installs a precomputed table for the given street.
func (r *Router) SetTable(street nlhe.Street, t *ProductionTable) {
	if int(street) < len(r.tables) {
		r.tables[street] = t
	}
}

func (r *Router) Bucket(street nlhe.Street, hole [2]poker.Card, board []poker.Card) int {
	if int(street) < len(r.tables) && r.tables[street] != nil {
		return r.tables[street].Bucket(street, hole, board)
	}
	return r.fallback.Bucket(street, hole, board)
}
