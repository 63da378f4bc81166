package index

type avlNode struct {
	key         string
	count       int
	height      int
	left, right *avlNode
}

// FrequencyTree is an AVL tree counting how often each exact token was
// inserted. Unlike PrefixIndex it compares whole keys byte by byte, so "v2"
// and "v" are different entries.
type FrequencyTree struct {
	root  *avlNode
	size  int
	total int
}

func NewFrequencyTree() *FrequencyTree {
	return &FrequencyTree{}
}

// Insert adds one to the count of word, creating the entry on first sight.
func (t *FrequencyTree) Insert(word string) {
	t.root = t.insert(t.root, word)
	t.total++
}

func (t *FrequencyTree) insert(n *avlNode, key string) *avlNode {
	if n == nil {
		t.size++
		return &avlNode{key: key, count: 1, height: 1}
	}
	switch {
	case key < n.key:
		n.left = t.insert(n.left, key)
	case key > n.key:
		n.right = t.insert(n.right, key)
	default:
		n.count++
	}
	n.height = 1 + max(height(n.left), height(n.right))
	return rebalance(n)
}

// Frequency returns the count stored for word, or 0 if it was never inserted.
func (t *FrequencyTree) Frequency(word string) int {
	n := t.root
	for n != nil {
		switch {
		case word < n.key:
			n = n.left
		case word > n.key:
			n = n.right
		default:
			return n.count
		}
	}
	return 0
}

// Len returns the number of distinct keys.
func (t *FrequencyTree) Len() int {
	return t.size
}

// Total returns the number of insertions, i.e. the sum of all counts.
func (t *FrequencyTree) Total() int {
	return t.total
}

// Height returns the height of the tree; 0 when empty.
func (t *FrequencyTree) Height() int {
	return height(t.root)
}

// Walk calls fn for every key in ascending order until fn returns false.
func (t *FrequencyTree) Walk(fn func(word string, count int) bool) {
	walk(t.root, fn)
}

func walk(n *avlNode, fn func(string, int) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, fn) {
		return false
	}
	if !fn(n.key, n.count) {
		return false
	}
	return walk(n.right, fn)
}

func rebalance(n *avlNode) *avlNode {
	bf := balance(n)
	if bf > 1 {
		if balance(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	}
	if bf < -1 {
		if balance(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func rotateLeft(n *avlNode) *avlNode {
	root := n.right
	n.right = root.left
	root.left = n
	n.height = 1 + max(height(n.left), height(n.right))
	root.height = 1 + max(height(root.left), height(root.right))
	return root
}

func rotateRight(n *avlNode) *avlNode {
	root := n.left
	n.left = root.right
	root.right = n
	n.height = 1 + max(height(n.left), height(n.right))
	root.height = 1 + max(height(root.left), height(root.right))
	return root
}

func height(n *avlNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balance(n *avlNode) int {
	if n == nil {
		return 0
	}
	return height(n.left) - height(n.right)
}
