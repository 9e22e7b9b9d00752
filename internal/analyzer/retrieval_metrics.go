package analyzer

import (
	"github.com/ludo-technologies/cloneval/domain"
)

// RelevanceSet is the set of ground-truth clones of a single query
type RelevanceSet map[domain.FragmentID]struct{}

// NewRelevanceSet creates a set from the given identifiers
func NewRelevanceSet(ids ...domain.FragmentID) RelevanceSet {
	set := make(RelevanceSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is relevant
func (s RelevanceSet) Has(id domain.FragmentID) bool {
	_, ok := s[id]
	return ok
}

func relevantFor(gt *domain.AdjacencyMap, query domain.FragmentID) RelevanceSet {
	return NewRelevanceSet(gt.Clones(query)...)
}

// Recall returns TP/(TP+FN) summed over the keys of the candidate map, where
// TP counts reference clones also found by the candidate and FN counts the
// reference clones it missed. Reference keys absent from the candidate map
// do not contribute. Returns 0 when the denominator is 0.
func Recall(ref, cand *domain.AdjacencyMap) float64 {
	tp, fn := 0, 0
	for _, key := range cand.Keys() {
		ref.RangeClones(key, func(c domain.FragmentID) bool {
			if cand.Contains(key, c) {
				tp++
			} else {
				fn++
			}
			return true
		})
	}
	if tp+fn == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

// PrecisionAtK scans the first k candidate clones of query in lexicographic
// order and returns the fraction of k that are relevant. The divisor is
// always k, even when fewer than k candidates exist.
func PrecisionAtK(cand *domain.AdjacencyMap, query domain.FragmentID, relevant RelevanceSet, k int) float64 {
	if k <= 0 || cand.Degree(query) == 0 {
		return 0
	}
	hits, seen := 0, 0
	cand.RangeClones(query, func(c domain.FragmentID) bool {
		if seen >= k {
			return false
		}
		seen++
		if relevant.Has(c) {
			hits++
		}
		return true
	})
	return float64(hits) / float64(k)
}

// ReciprocalRank returns 1/rank of the first relevant candidate, or 0
func ReciprocalRank(cand *domain.AdjacencyMap, query domain.FragmentID, relevant RelevanceSet) float64 {
	rank, rr := 0, 0.0
	cand.RangeClones(query, func(c domain.FragmentID) bool {
		rank++
		if relevant.Has(c) {
			rr = 1 / float64(rank)
			return false
		}
		return true
	})
	return rr
}

// AveragePrecision accumulates count/rank at every relevant candidate and
// divides by the size of the relevant set. Returns 0 when query has no
// candidate entry, the relevant set is empty, or nothing relevant was found.
func AveragePrecision(cand *domain.AdjacencyMap, query domain.FragmentID, relevant RelevanceSet) float64 {
	if !cand.Has(query) || len(relevant) == 0 {
		return 0
	}
	rank, count, sum := 0, 0, 0.0
	cand.RangeClones(query, func(c domain.FragmentID) bool {
		rank++
		if relevant.Has(c) {
			count++
			sum += float64(count) / float64(rank)
		}
		return true
	})
	if count == 0 {
		return 0
	}
	return sum / float64(len(relevant))
}

// queryScore computes a per-query metric given the query's relevant set
type queryScore func(query domain.FragmentID, relevant RelevanceSet) float64

// meanOverSubset averages score over the ground-truth keys in subset, in
// sorted key order. With positiveOnly, queries scoring 0 are left out of both
// the sum and the count.
func meanOverSubset(gt *domain.AdjacencyMap, subset *domain.QuerySubset, positiveOnly bool, score queryScore) (float64, int) {
	sum, n := 0.0, 0
	for _, query := range gt.Keys() {
		if !subset.Contains(query) {
			continue
		}
		v := score(query, relevantFor(gt, query))
		if positiveOnly && v <= 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// MeanPrecisionAtK averages PrecisionAtK over the ground-truth keys in subset
func MeanPrecisionAtK(gt, cand *domain.AdjacencyMap, subset *domain.QuerySubset, k int) float64 {
	mean, _ := meanOverSubset(gt, subset, false, func(q domain.FragmentID, rel RelevanceSet) float64 {
		return PrecisionAtK(cand, q, rel, k)
	})
	return mean
}

// MeanReciprocalRank averages ReciprocalRank over the ground-truth keys in
// subset whose reciprocal rank is positive
func MeanReciprocalRank(gt, cand *domain.AdjacencyMap, subset *domain.QuerySubset) float64 {
	mean, _ := meanOverSubset(gt, subset, true, func(q domain.FragmentID, rel RelevanceSet) float64 {
		return ReciprocalRank(cand, q, rel)
	})
	return mean
}

// MeanAveragePrecision averages AveragePrecision over the ground-truth keys in
// subset whose average precision is positive
func MeanAveragePrecision(gt, cand *domain.AdjacencyMap, subset *domain.QuerySubset) float64 {
	mean, _ := meanOverSubset(gt, subset, true, func(q domain.FragmentID, rel RelevanceSet) float64 {
		return AveragePrecision(cand, q, rel)
	})
	return mean
}

// Evaluate computes every metric for one comparison. ks defaults to
// domain.DefaultKValues when empty.
func Evaluate(gt, cand *domain.AdjacencyMap, subset *domain.QuerySubset, ks []int) domain.MetricSet {
	if len(ks) == 0 {
		ks = domain.DefaultKValues
	}

	result := domain.MetricSet{
		Recall:       Recall(gt, cand),
		PrecisionAtK: make(map[int]float64, len(ks)),
	}

	for _, k := range ks {
		mean, n := meanOverSubset(gt, subset, false, func(q domain.FragmentID, rel RelevanceSet) float64 {
			return PrecisionAtK(cand, q, rel, k)
		})
		result.PrecisionAtK[k] = mean
		result.PrecisionQueries = n
	}

	result.MRR, result.RankedQueries = meanOverSubset(gt, subset, true, func(q domain.FragmentID, rel RelevanceSet) float64 {
		return ReciprocalRank(cand, q, rel)
	})
	result.MAP, result.AveragedQueries = meanOverSubset(gt, subset, true, func(q domain.FragmentID, rel RelevanceSet) float64 {
		return AveragePrecision(cand, q, rel)
	})

	return result
}
