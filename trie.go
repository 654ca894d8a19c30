package schemaguard

import "strings"

// trieNode is one node of a TokenTrie. Edges are keyed by token id.
type trieNode struct {
	children map[int32]*trieNode
	terminal bool
	key      string // the declared key this node completes, when terminal
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[int32]*trieNode)}
}

// TokenTrie is a prefix tree over token-id sequences for the declared keys
// of one schema object node. Distinct keys are guaranteed (by insert) to
// terminate at distinct nodes.
type TokenTrie struct {
	root *trieNode
}

// NewTokenTrie builds a TokenTrie for the given object node's declared
// keys, using tok in body-encoding mode. Returns ErrEmptyConstraints if
// node declares no keys.
func NewTokenTrie(node *SchemaNode, tok TokenizerAdapter) (*TokenTrie, error) {
	keys := node.Keys()
	if len(keys) == 0 {
		return nil, NewDecodeError(ErrEmptyConstraints, "", 0, "")
	}

	trie := &TokenTrie{root: newTrieNode()}
	for _, key := range keys {
		if err := trie.insert(key, tok); err != nil {
			return nil, err
		}
	}
	return trie, nil
}

// insert adds key to the trie, rejecting keys that encode to an empty
// sequence or whose tokens would break JSON key escaping, per §4.3, and
// keys whose token sequence ends at another key's terminal node.
func (t *TokenTrie) insert(key string, tok TokenizerAdapter) error {
	ids := tok.Encode(key, true)
	if len(ids) == 0 {
		return NewDecodeError(ErrEmptyConstraints, key, 0, "key encodes to empty token sequence")
	}

	for _, id := range ids {
		piece := tok.DecodeOne(id)
		if !strings.Contains(key, piece) {
			return NewDecodeError(ErrEmptyConstraints, key, 0, "key token does not decode back to a substring of the key")
		}
		if strings.ContainsAny(piece, "\"\\") {
			return NewDecodeError(ErrEmptyConstraints, key, 0, "key token decodes to text containing an unescaped quote or backslash")
		}
	}

	cur := t.root
	for _, id := range ids {
		next, ok := cur.children[id]
		if !ok {
			next = newTrieNode()
			cur.children[id] = next
		}
		cur = next
	}
	if cur.terminal && cur.key != key {
		return NewDecodeError(ErrEmptyConstraints, key, 0, "key encodes to the same token sequence as key \""+cur.key+"\"")
	}
	cur.terminal = true
	cur.key = key
	return nil
}

// Root returns the trie's root node, the reset target for a TokenTriePath.
func (t *TokenTrie) Root() *trieNode { return t.root }

// TokenTriePath tracks the current position while decoding a key: the
// tokens consumed since the key opened, and the trie node they reach.
type TokenTriePath struct {
	trie   *TokenTrie
	tokens []int32
	node   *trieNode // nil when off-trie
}

// NewTokenTriePath creates a path positioned at trie's root.
func NewTokenTriePath(trie *TokenTrie) *TokenTriePath {
	return &TokenTriePath{trie: trie, node: trie.Root()}
}

// Reset repositions the path at its trie's root, clearing consumed tokens.
func (p *TokenTriePath) Reset() {
	p.tokens = p.tokens[:0]
	p.node = p.trie.Root()
}

// Append attempts to follow edge t from the current node. Returns true and
// advances the path if the edge exists; otherwise leaves the path
// unchanged and returns false.
func (p *TokenTriePath) Append(t int32) bool {
	if p.node == nil {
		return false
	}
	next, ok := p.node.children[t]
	if !ok {
		return false
	}
	p.tokens = append(p.tokens, t)
	p.node = next
	return true
}

// AtTerminal reports whether the current node completes a declared key.
func (p *TokenTriePath) AtTerminal() bool {
	return p.node != nil && p.node.terminal
}

// CompletedKey returns the key string at the current terminal node, and
// true, or ("", false) when not at a terminal.
func (p *TokenTriePath) CompletedKey() (string, bool) {
	if !p.AtTerminal() {
		return "", false
	}
	return p.node.key, true
}

// AllowedNext returns the set of token ids that are valid edges out of the
// current node. Empty when off-trie (node is nil).
func (p *TokenTriePath) AllowedNext() []int32 {
	if p.node == nil {
		return nil
	}
	out := make([]int32, 0, len(p.node.children))
	for id := range p.node.children {
		out = append(out, id)
	}
	return out
}

// AllowedNextExcluding is AllowedNext restricted to edges that can still
// reach a declared key not in excluded. A key already emitted in the
// current object must never be offered again, even when its token
// sequence shares a prefix with another, still-available key.
func (p *TokenTriePath) AllowedNextExcluding(excluded map[string]struct{}) []int32 {
	if p.node == nil {
		return nil
	}
	out := make([]int32, 0, len(p.node.children))
	for id, child := range p.node.children {
		if child.reachesNonExcludedKey(excluded) {
			out = append(out, id)
		}
	}
	return out
}

// reachesNonExcludedKey reports whether some terminal beneath n completes a
// key outside excluded.
func (n *trieNode) reachesNonExcludedKey(excluded map[string]struct{}) bool {
	if n.terminal {
		if _, done := excluded[n.key]; !done {
			return true
		}
	}
	for _, child := range n.children {
		if child.reachesNonExcludedKey(excluded) {
			return true
		}
	}
	return false
}

// Tokens returns the token ids consumed since the path was last reset.
func (p *TokenTriePath) Tokens() []int32 {
	return p.tokens
}
