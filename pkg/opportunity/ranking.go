package opportunity

import "sort"

// Less orders opportunities descending by estimated_profit - gas_cost
// (saturating), breaking ties by higher priority, then lower
// expiry_block.
func Less(a, b *Opportunity) bool {
	netA, netB := a.NetProfit(), b.NetProfit()
	if cmp := netA.Cmp(netB); cmp != 0 {
		return cmp > 0
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ExpiryBlock < b.ExpiryBlock
}

// Sort orders opps in place per Less.
func Sort(opps []*Opportunity) {
	sort.Slice(opps, func(i, j int) bool {
		return Less(opps[i], opps[j])
	})
}

// TopK returns the best K opportunities per Less, without mutating opps.
func TopK(opps []*Opportunity, k int) []*Opportunity {
	ranked := make([]*Opportunity, len(opps))
	copy(ranked, opps)
	Sort(ranked)
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
