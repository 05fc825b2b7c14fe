// Package taxonomy loads the four-level industry master list and answers
// classification queries against it. The index is built once at startup
// and is immutable afterward, so it is safe for concurrent readers.
package taxonomy

import (
	"sort"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/normalize"
)

// Level selects which hierarchy level a search runs against.
type Level int

const (
	// LevelAny searches every level.
	LevelAny Level = iota
	LevelLarge
	LevelMiddle
	LevelSmall
)

// Node is one (large, middle, small) row of the master list.
// The normalized keys are precomputed at load time.
type Node struct {
	Large  string
	Middle string
	Small  string

	largeKey  string
	middleKey string
	smallKey  string
}

// TripleKey returns the normalized composite key identifying this node.
func (n *Node) TripleKey() string {
	return n.largeKey + "|" + n.middleKey + "|" + n.smallKey
}

// Index holds the loaded master list with raw and normalized lookup maps.
type Index struct {
	nodes []*Node

	byTriple map[string]*Node

	largeRaw  map[string][]*Node
	middleRaw map[string][]*Node
	smallRaw  map[string][]*Node

	largeNorm  map[string][]*Node
	middleNorm map[string][]*Node
	smallNorm  map[string][]*Node
}

// New builds an index from master rows. Rows with any empty level are
// skipped, and duplicate triples collapse to their first occurrence.
func New(rows [][3]string) *Index {
	idx := &Index{
		byTriple:   make(map[string]*Node),
		largeRaw:   make(map[string][]*Node),
		middleRaw:  make(map[string][]*Node),
		smallRaw:   make(map[string][]*Node),
		largeNorm:  make(map[string][]*Node),
		middleNorm: make(map[string][]*Node),
		smallNorm:  make(map[string][]*Node),
	}
	for _, row := range rows {
		large := strings.TrimSpace(row[0])
		middle := strings.TrimSpace(row[1])
		small := strings.TrimSpace(row[2])
		if large == "" || middle == "" || small == "" {
			continue
		}
		n := &Node{
			Large:     large,
			Middle:    middle,
			Small:     small,
			largeKey:  normalize.Key(large),
			middleKey: normalize.Key(middle),
			smallKey:  normalize.Key(small),
		}
		if _, dup := idx.byTriple[n.TripleKey()]; dup {
			continue
		}
		idx.byTriple[n.TripleKey()] = n
		idx.nodes = append(idx.nodes, n)

		idx.largeRaw[large] = append(idx.largeRaw[large], n)
		idx.middleRaw[middle] = append(idx.middleRaw[middle], n)
		idx.smallRaw[small] = append(idx.smallRaw[small], n)
		idx.largeNorm[n.largeKey] = append(idx.largeNorm[n.largeKey], n)
		idx.middleNorm[n.middleKey] = append(idx.middleNorm[n.middleKey], n)
		idx.smallNorm[n.smallKey] = append(idx.smallNorm[n.smallKey], n)
	}
	return idx
}

// Len returns the number of distinct triples loaded.
func (idx *Index) Len() int { return len(idx.nodes) }

// Nodes returns all loaded nodes in master-list order.
func (idx *Index) Nodes() []*Node { return idx.nodes }

// LookupTriple finds the node whose normalized (large, middle, small)
// composite equals the given values, or nil.
func (idx *Index) LookupTriple(large, middle, small string) *Node {
	key := normalize.Key(large) + "|" + normalize.Key(middle) + "|" + normalize.Key(small)
	return idx.byTriple[key]
}

// LookupBySmall returns every node whose small category normalizes to the
// given text. Used to derive large/middle from a known small category.
func (idx *Index) LookupBySmall(text string) []*Node {
	return idx.smallNorm[normalize.Key(text)]
}

// CanonicalValue returns the master's spelling for a value that matches
// one level standalone. The hit must resolve to a single distinct master
// spelling; a normalized key shared by differently spelled entries
// reports no match.
func (idx *Index) CanonicalValue(text string, level Level) (string, bool) {
	var m map[string][]*Node
	switch level {
	case LevelLarge:
		m = idx.largeNorm
	case LevelMiddle:
		m = idx.middleNorm
	case LevelSmall:
		m = idx.smallNorm
	default:
		return "", false
	}
	key := normalize.Key(text)
	if key == "" {
		return "", false
	}
	value := ""
	for _, n := range m[key] {
		v := n.valueAt(level)
		if value == "" {
			value = v
			continue
		}
		if v != value {
			return "", false
		}
	}
	return value, value != ""
}

// SearchContains returns every node at the given level whose normalized
// key contains the query or is contained by it. This is the deliberate
// fallback when exact matching fails; the caller distinguishes a unique
// hit from an ambiguous set.
func (idx *Index) SearchContains(text string, level Level) []*Node {
	q := normalize.Key(text)
	if q == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []*Node
	add := func(key string, nodes []*Node) {
		if key == "" || !bidirContains(key, q) {
			return
		}
		for _, n := range nodes {
			if !seen[n.TripleKey()] {
				seen[n.TripleKey()] = true
				out = append(out, n)
			}
		}
	}
	switch level {
	case LevelLarge:
		for k, ns := range idx.largeNorm {
			add(k, ns)
		}
	case LevelMiddle:
		for k, ns := range idx.middleNorm {
			add(k, ns)
		}
	case LevelSmall:
		for k, ns := range idx.smallNorm {
			add(k, ns)
		}
	default:
		for k, ns := range idx.smallNorm {
			add(k, ns)
		}
		for k, ns := range idx.middleNorm {
			add(k, ns)
		}
		for k, ns := range idx.largeNorm {
			add(k, ns)
		}
	}
	sortNodes(out)
	return out
}

// valueAt returns the node's raw value at one level.
func (n *Node) valueAt(level Level) string {
	switch level {
	case LevelLarge:
		return n.Large
	case LevelMiddle:
		return n.Middle
	case LevelSmall:
		return n.Small
	default:
		return ""
	}
}

func bidirContains(key, query string) bool {
	return strings.Contains(key, query) || strings.Contains(query, key)
}

// sortNodes orders nodes by composite key so search results are stable
// regardless of map iteration order.
func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].TripleKey() < nodes[j].TripleKey()
	})
}
