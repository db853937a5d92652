package joins

import (
	"strconv"

	"github.com/roach88/labsearch/internal/sqlfrag"
)

// MainAlias is the alias of the main entity table.
const MainAlias = "t0"

// AliasAllocator hands out t1, t2, ... for one compilation.
type AliasAllocator struct {
	next int
}

// NewAliasAllocator returns an allocator whose first alias is t1.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{next: 1}
}

// Next returns a fresh alias.
func (a *AliasAllocator) Next() string {
	alias := "t" + strconv.Itoa(a.next)
	a.next++
	return alias
}

// Plan is the ordered, de-duplicated set of joins of one compilation.
type Plan struct {
	aliases *AliasAllocator
	order   []string
	joins   map[string]sqlfrag.JoinInformation
}

// NewPlan returns an empty plan drawing aliases from aliases.
func NewPlan(aliases *AliasAllocator) *Plan {
	return &Plan{
		aliases: aliases,
		joins:   make(map[string]sqlfrag.JoinInformation),
	}
}

// Ensure adds the join under key unless one exists, and returns the alias of
// the joined table either way. The SubAlias of join is always allocated here.
func (p *Plan) Ensure(key string, join sqlfrag.JoinInformation) string {
	if existing, ok := p.joins[key]; ok {
		return existing.SubAlias
	}
	join.Key = key
	join.SubAlias = p.aliases.Next()
	p.joins[key] = join
	p.order = append(p.order, key)
	return join.SubAlias
}

// Alias returns the alias planned under key.
func (p *Plan) Alias(key string) (string, bool) {
	j, ok := p.joins[key]
	return j.SubAlias, ok
}

// Joins returns the planned joins in insertion order.
func (p *Plan) Joins() []sqlfrag.JoinInformation {
	out := make([]sqlfrag.JoinInformation, len(p.order))
	for i, key := range p.order {
		out[i] = p.joins[key]
	}
	return out
}

// Len returns the number of planned joins.
func (p *Plan) Len() int { return len(p.order) }
