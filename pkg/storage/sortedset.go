package storage

import "github.com/emirpasic/gods/trees/redblacktree"

// SortedSet stores a set (no duplicates allowed) of study IDs in memory
// in a way that also provides fast sorted access. Since study IDs are
// ULIDs, sorted order is creation order.
type SortedSet interface {
	Size() int
	Min() string
	Max() string
	Add(key string)
	Remove(key string)
	Exists(key string) bool
	Values() []string

	// ValuesFrom returns up to limit keys in ascending order, starting at
	// the smallest key greater than or equal to from. An empty from
	// starts at the beginning of the set.
	ValuesFrom(from string, limit int) []string
}

// TreeSet implements SortedSet on a red-black tree keyed by the IDs.
type TreeSet struct {
	tree *redblacktree.Tree
}

var _ SortedSet = (*TreeSet)(nil)

func NewSortedSet() *TreeSet {
	return &TreeSet{tree: redblacktree.NewWithStringComparator()}
}

func (s *TreeSet) Min() string {
	node := s.tree.Left()
	if node == nil {
		return ""
	}
	return node.Key.(string)
}

func (s *TreeSet) Max() string {
	node := s.tree.Right()
	if node == nil {
		return ""
	}
	return node.Key.(string)
}

func (s *TreeSet) Add(key string) {
	s.tree.Put(key, nil)
}

func (s *TreeSet) Remove(key string) {
	s.tree.Remove(key)
}

func (s *TreeSet) Exists(key string) bool {
	_, ok := s.tree.Get(key)
	return ok
}

func (s *TreeSet) Size() int {
	return s.tree.Size()
}

func (s *TreeSet) Values() []string {
	values := make([]string, 0, s.tree.Size())
	for _, v := range s.tree.Keys() {
		values = append(values, v.(string))
	}
	return values
}

func (s *TreeSet) ValuesFrom(from string, limit int) []string {
	values := make([]string, 0, limit)

	node, ok := s.tree.Ceiling(from)
	if !ok {
		return values
	}

	it := s.tree.IteratorAt(node)
	for len(values) < limit {
		values = append(values, it.Key().(string))
		if !it.Next() {
			break
		}
	}
	return values
}
