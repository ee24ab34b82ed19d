package index

import (
	"cmp"
	"slices"
)

// Group is a set of fingerprints transitively within the distance threshold
// of each other.
type Group struct {
	Keys        []string `json:"keys"`
	MaxDistance int      `json:"max_distance"`
}

// unionFind groups keys connected by close pairs.
type unionFind struct {
	parent  map[string]string
	rank    map[string]int
	maxDist map[string]int
}

func newUnionFind(keys []string) *unionFind {
	uf := &unionFind{
		parent:  make(map[string]string, len(keys)),
		rank:    make(map[string]int, len(keys)),
		maxDist: make(map[string]int),
	}
	for _, k := range keys {
		uf.parent[k] = k
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x])
	}
	return uf.parent[x]
}

func (uf *unionFind) union(x, y string, distance int) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		uf.maxDist[px] = max(uf.maxDist[px], distance)
		return
	}
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
	uf.maxDist[px] = max(uf.maxDist[px], uf.maxDist[py], distance)
	delete(uf.maxDist, py)
}

// Groups links every fingerprint with its neighbours at most maxDistance
// bits away, looking at the k nearest candidates of each, and returns the
// groups with at least two members. Groups are ordered by size, then by
// their first key; keys within a group are sorted.
func (ix *Index) Groups(maxDistance, k int) ([]Group, error) {
	keys := ix.Keys()
	if len(keys) == 0 {
		return nil, nil
	}

	uf := newUnionFind(keys)
	for _, key := range keys {
		neighbors, err := ix.Within(ix.Get(key), maxDistance, k)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if n.Key != key {
				uf.union(key, n.Key, n.Distance)
			}
		}
	}

	members := make(map[string][]string)
	for _, key := range keys {
		root := uf.find(key)
		members[root] = append(members[root], key)
	}

	var groups []Group
	for root, group := range members {
		if len(group) < 2 {
			continue
		}
		groups = append(groups, Group{Keys: group, MaxDistance: uf.maxDist[root]})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(len(b.Keys), len(a.Keys)); c != 0 {
			return c
		}
		return cmp.Compare(a.Keys[0], b.Keys[0])
	})
	return groups, nil
}
