package index

const alphabetSize = 26

type trieNode struct {
	children    [alphabetSize]*trieNode
	occurrences OccurrenceList
}

// PrefixIndex maps words to the ordered list of places they occur. It walks
// one level per letter a-z; any other character is skipped without moving,
// so "item1" and "item" resolve to the same node and share occurrences.
//
// PrefixIndex is not synchronised. It is filled once during a build and only
// read afterwards.
type PrefixIndex struct {
	root        *trieNode
	nodes       int
	occurrences int
}

func NewPrefixIndex() *PrefixIndex {
	return &PrefixIndex{
		root:  &trieNode{},
		nodes: 1,
	}
}

// Insert appends an occurrence of word to the node its letters lead to,
// creating missing nodes on the way.
func (p *PrefixIndex) Insert(word string, filename string, pageIndex int, position int) {
	node := p.root
	for _, r := range word {
		slot, ok := letterSlot(r)
		if !ok {
			continue
		}
		if node.children[slot] == nil {
			node.children[slot] = &trieNode{}
			p.nodes++
		}
		node = node.children[slot]
	}
	node.occurrences = append(node.occurrences, Occurrence{
		Filename:  filename,
		PageIndex: pageIndex,
		Position:  position,
	})
	p.occurrences++
}

// Search returns the occurrences stored at the node word leads to, or an
// empty list when the path does not exist. The returned slice is shared with
// the index and must not be modified.
func (p *PrefixIndex) Search(word string) OccurrenceList {
	node := p.root
	for _, r := range word {
		slot, ok := letterSlot(r)
		if !ok {
			continue
		}
		if node.children[slot] == nil {
			return OccurrenceList{}
		}
		node = node.children[slot]
	}
	if node.occurrences == nil {
		return OccurrenceList{}
	}
	return node.occurrences
}

// Nodes returns the number of trie nodes, root included.
func (p *PrefixIndex) Nodes() int {
	return p.nodes
}

// Occurrences returns the total number of stored occurrences.
func (p *PrefixIndex) Occurrences() int {
	return p.occurrences
}

// letterSlot maps an ASCII letter to its child slot. Everything else,
// including non-ASCII letters, has no slot.
func letterSlot(r rune) (int, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return int(r - 'a'), true
	case r >= 'A' && r <= 'Z':
		return int(r - 'A'), true
	default:
		return 0, false
	}
}
