package search

// rrfK is the Reciprocal Rank Fusion rank-damping constant, per the
// Cormack/Clarke/Buettcher (2009) convention: a result at rank 0 of a
// single list scores 1/k, and the decay flattens as rank grows.
const rrfK = 60

// rankedList is an ordered (best-first) set of ids with an O(1)
// rank lookup.
type rankedList struct {
	order []string
	rank  map[string]int
}

func newRankedList(ids []string) rankedList {
	rl := rankedList{order: ids, rank: make(map[string]int, len(ids))}
	for i, id := range ids {
		rl.rank[id] = i
	}
	return rl
}

func (rl rankedList) rankOf(id string) (int, bool) {
	r, ok := rl.rank[id]
	return r, ok
}

// fuseRRF computes RRF(id) = sum(1/(k+rank)) over every list id
// appears in, for the union of both lists.
func fuseRRF(lv, lb rankedList) map[string]float64 {
	scores := make(map[string]float64)
	for id, rank := range lv.rank {
		scores[id] += 1.0 / float64(rrfK+rank)
	}
	for id, rank := range lb.rank {
		scores[id] += 1.0 / float64(rrfK+rank)
	}
	return scores
}
