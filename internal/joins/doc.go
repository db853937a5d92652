// Package joins allocates table aliases and plans the joins a compiled
// search needs.
//
// One AliasAllocator and one Plan exist per compilation. The main entity
// table is always aliased t0; every joined table gets the next alias (t1,
// t2, ...). The Plan is keyed by the joined table's identity, so two
// criteria that need the same table share a single join and alias. All
// planners are idempotent: running them again against the same Plan adds
// nothing.
package joins
