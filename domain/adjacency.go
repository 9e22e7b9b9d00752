package domain

import (
	"slices"
)

// FragmentID is the canonical key of a code fragment: {base}_{start}_{end}.java
type FragmentID string

// String returns the identifier as a plain string
func (id FragmentID) String() string {
	return string(id)
}

type fragmentSet map[FragmentID]struct{}

// AdjacencyBuilder accumulates clone pairs while a source is being loaded.
// Every pair is inserted in both directions in the same step, so the
// resulting map is symmetric for the pairs that went through AddPair.
type AdjacencyBuilder struct {
	sets map[FragmentID]fragmentSet
}

// NewAdjacencyBuilder creates an empty builder
func NewAdjacencyBuilder() *AdjacencyBuilder {
	return &AdjacencyBuilder{sets: make(map[FragmentID]fragmentSet)}
}

// AddPair records that a and b are clones of each other
func (b *AdjacencyBuilder) AddPair(a, c FragmentID) {
	b.add(a, c)
	b.add(c, a)
}

// AddEdge records a one-directional entry. Used when copying an existing
// map, never by loaders.
func (b *AdjacencyBuilder) AddEdge(from, to FragmentID) {
	b.add(from, to)
}

func (b *AdjacencyBuilder) add(from, to FragmentID) {
	set, ok := b.sets[from]
	if !ok {
		set = make(fragmentSet)
		b.sets[from] = set
	}
	set[to] = struct{}{}
}

// Merge copies every entry of m into the builder
func (b *AdjacencyBuilder) Merge(m *AdjacencyMap) {
	if m == nil {
		return
	}
	for from, set := range m.sets {
		if _, ok := b.sets[from]; !ok {
			b.sets[from] = make(fragmentSet, len(set))
		}
		for to := range set {
			b.sets[from][to] = struct{}{}
		}
	}
}

// Len returns the number of keys added so far
func (b *AdjacencyBuilder) Len() int {
	return len(b.sets)
}

// Build freezes the accumulated entries into an AdjacencyMap.
// The builder is reset and may be reused.
func (b *AdjacencyBuilder) Build() *AdjacencyMap {
	sets := b.sets
	b.sets = make(map[FragmentID]fragmentSet)

	sorted := make(map[FragmentID][]FragmentID, len(sets))
	keys := make([]FragmentID, 0, len(sets))
	for from, set := range sets {
		clones := make([]FragmentID, 0, len(set))
		for to := range set {
			clones = append(clones, to)
		}
		slices.Sort(clones)
		sorted[from] = clones
		keys = append(keys, from)
	}
	slices.Sort(keys)

	return &AdjacencyMap{sets: sets, sorted: sorted, keys: keys}
}

// AdjacencyMap is the read-only, set-valued clone relation of one source.
// Clone lists are kept in lexicographic order, which is the rank order
// used by the retrieval metrics.
type AdjacencyMap struct {
	sets   map[FragmentID]fragmentSet
	sorted map[FragmentID][]FragmentID
	keys   []FragmentID
}

// EmptyAdjacencyMap returns a map with no entries
func EmptyAdjacencyMap() *AdjacencyMap {
	return NewAdjacencyBuilder().Build()
}

// AdjacencyFromMap builds a map from already-normalized entries, exactly as
// given (no reciprocal entries are added).
func AdjacencyFromMap(entries map[FragmentID][]FragmentID) *AdjacencyMap {
	b := NewAdjacencyBuilder()
	for from, clones := range entries {
		if _, ok := b.sets[from]; !ok {
			b.sets[from] = make(fragmentSet, len(clones))
		}
		for _, to := range clones {
			b.AddEdge(from, to)
		}
	}
	return b.Build()
}

// Len returns the number of keys
func (m *AdjacencyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns all keys in lexicographic order
func (m *AdjacencyMap) Keys() []FragmentID {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Has reports whether id is a key of the map
func (m *AdjacencyMap) Has(id FragmentID) bool {
	if m == nil {
		return false
	}
	_, ok := m.sets[id]
	return ok
}

// Clones returns the clones of id in lexicographic order. A missing key
// yields an empty result.
func (m *AdjacencyMap) Clones(id FragmentID) []FragmentID {
	if m == nil {
		return nil
	}
	return slices.Clone(m.sorted[id])
}

// RangeClones calls fn for each clone of id in lexicographic order until fn
// returns false.
func (m *AdjacencyMap) RangeClones(id FragmentID, fn func(FragmentID) bool) {
	if m == nil {
		return
	}
	for _, c := range m.sorted[id] {
		if !fn(c) {
			return
		}
	}
}

// Degree returns the number of clones of id
func (m *AdjacencyMap) Degree(id FragmentID) int {
	if m == nil {
		return 0
	}
	return len(m.sets[id])
}

// Contains reports whether other is recorded as a clone of id
func (m *AdjacencyMap) Contains(id, other FragmentID) bool {
	if m == nil {
		return false
	}
	_, ok := m.sets[id][other]
	return ok
}

// EntryCount returns the number of directed entries (sum of degrees)
func (m *AdjacencyMap) EntryCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, set := range m.sets {
		n += len(set)
	}
	return n
}

// PairCount returns the number of unordered pairs in a symmetric map
func (m *AdjacencyMap) PairCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for from, set := range m.sets {
		for to := range set {
			if from == to {
				n += 2
				continue
			}
			n++
		}
	}
	return n / 2
}

// UniqueFragments returns the number of distinct identifiers appearing as
// either a key or a clone
func (m *AdjacencyMap) UniqueFragments() int {
	if m == nil {
		return 0
	}
	seen := make(fragmentSet, len(m.sets))
	for from, set := range m.sets {
		seen[from] = struct{}{}
		for to := range set {
			seen[to] = struct{}{}
		}
	}
	return len(seen)
}

// Union returns a new map holding the entries of both maps
func (m *AdjacencyMap) Union(other *AdjacencyMap) *AdjacencyMap {
	b := NewAdjacencyBuilder()
	b.Merge(m)
	b.Merge(other)
	return b.Build()
}

// Equal reports whether both maps hold exactly the same entries
func (m *AdjacencyMap) Equal(other *AdjacencyMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, key := range m.Keys() {
		if !slices.Equal(m.sorted[key], other.sorted[key]) {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether every entry has its reciprocal
func (m *AdjacencyMap) IsSymmetric() bool {
	if m == nil {
		return true
	}
	for from, set := range m.sets {
		for to := range set {
			if !m.Contains(to, from) {
				return false
			}
		}
	}
	return true
}

// MultiAdjacency is the list-valued clone relation. Duplicate pairs are kept;
// it exists for diagnostic counting only.
type MultiAdjacency struct {
	lists map[FragmentID][]FragmentID
}

// NewMultiAdjacency creates an empty list-valued map
func NewMultiAdjacency() *MultiAdjacency {
	return &MultiAdjacency{lists: make(map[FragmentID][]FragmentID)}
}

// AddPair appends b to a's list and a to b's list
func (m *MultiAdjacency) AddPair(a, b FragmentID) {
	m.lists[a] = append(m.lists[a], b)
	m.lists[b] = append(m.lists[b], a)
}

// Entries returns the list recorded for id, duplicates included
func (m *MultiAdjacency) Entries(id FragmentID) []FragmentID {
	if m == nil {
		return nil
	}
	return slices.Clone(m.lists[id])
}

// Len returns the number of keys
func (m *MultiAdjacency) Len() int {
	if m == nil {
		return 0
	}
	return len(m.lists)
}

// EntryCount returns the total number of list entries, duplicates included
func (m *MultiAdjacency) EntryCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, list := range m.lists {
		n += len(list)
	}
	return n
}

// UniqueFragments returns the number of distinct identifiers in keys and lists
func (m *MultiAdjacency) UniqueFragments() int {
	if m == nil {
		return 0
	}
	seen := make(fragmentSet, len(m.lists))
	for from, list := range m.lists {
		seen[from] = struct{}{}
		for _, to := range list {
			seen[to] = struct{}{}
		}
	}
	return len(seen)
}

// QuerySubset is the fixed sample of fragments over which per-query metrics
// are averaged.
type QuerySubset struct {
	ids fragmentSet
}

// NewQuerySubset creates a subset from the given identifiers
func NewQuerySubset(ids ...FragmentID) *QuerySubset {
	q := &QuerySubset{ids: make(fragmentSet, len(ids))}
	for _, id := range ids {
		q.ids[id] = struct{}{}
	}
	return q
}

// Add inserts id into the subset
func (q *QuerySubset) Add(id FragmentID) {
	q.ids[id] = struct{}{}
}

// Contains reports whether id belongs to the subset
func (q *QuerySubset) Contains(id FragmentID) bool {
	if q == nil {
		return false
	}
	_, ok := q.ids[id]
	return ok
}

// Len returns the subset size
func (q *QuerySubset) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ids)
}

// IDs returns the members in lexicographic order
func (q *QuerySubset) IDs() []FragmentID {
	if q == nil {
		return nil
	}
	ids := make([]FragmentID, 0, len(q.ids))
	for id := range q.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
