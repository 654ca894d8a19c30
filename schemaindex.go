package schemaguard

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultSchemaIndexCacheMax is the default ceiling on the number of
// distinct (fingerprint, schema) trie entries the SchemaTrieIndex keeps
// resident, per spec §6's schema_index_cache_max.
const DefaultSchemaIndexCacheMax = 100

// schemaIndexKey identifies one cached TokenTrie: a tokenizer fingerprint
// together with the identity of the object SchemaNode it was built for.
type schemaIndexKey struct {
	fingerprint string
	node        *SchemaNode
}

// SchemaTrieIndex owns one TokenTrie per distinct object node of a schema
// tree, keyed by (tokenizer fingerprint, node identity), in a bounded LRU.
// No example repo in the reference corpus ships a ready-made LRU, so this
// is a direct container/list + map implementation of the standard Go LRU
// idiom — see DESIGN.md.
type SchemaTrieIndex struct {
	mu      sync.Mutex
	max     int
	entries map[schemaIndexKey]*list.Element
	order   *list.List // front = most recently used
	logger  *slog.Logger
}

type schemaIndexEntry struct {
	key  schemaIndexKey
	trie *TokenTrie
}

// NewSchemaTrieIndex creates an index with the given cache ceiling (<=0
// uses DefaultSchemaIndexCacheMax). A nil logger defaults to
// slog.Default().
func NewSchemaTrieIndex(max int, logger *slog.Logger) *SchemaTrieIndex {
	if max <= 0 {
		max = DefaultSchemaIndexCacheMax
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaTrieIndex{
		max:     max,
		entries: make(map[schemaIndexKey]*list.Element),
		order:   list.New(),
		logger:  logger,
	}
}

// TrieFor returns the cached TokenTrie for node under tok's fingerprint,
// building and inserting it on a miss. node must be a KindObject node.
func (idx *SchemaTrieIndex) TrieFor(node *SchemaNode, tok TokenizerAdapter) (*TokenTrie, error) {
	if node == nil || node.Kind != KindObject {
		return nil, fmt.Errorf("schemaguard: TrieFor requires an object schema node")
	}

	key := schemaIndexKey{fingerprint: tok.Fingerprint(), node: node}

	idx.mu.Lock()
	if elem, ok := idx.entries[key]; ok {
		idx.order.MoveToFront(elem)
		trie := elem.Value.(*schemaIndexEntry).trie
		idx.mu.Unlock()
		idx.logger.Debug("schema trie index cache hit", "fingerprint", key.fingerprint)
		return trie, nil
	}
	idx.mu.Unlock()

	trie, err := NewTokenTrie(node, tok)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if elem, ok := idx.entries[key]; ok {
		idx.order.MoveToFront(elem)
		return elem.Value.(*schemaIndexEntry).trie, nil
	}

	elem := idx.order.PushFront(&schemaIndexEntry{key: key, trie: trie})
	idx.entries[key] = elem
	idx.logger.Debug("schema trie index cache miss, built", "fingerprint", key.fingerprint)

	for idx.order.Len() > idx.max {
		oldest := idx.order.Back()
		if oldest == nil {
			break
		}
		idx.order.Remove(oldest)
		delete(idx.entries, oldest.Value.(*schemaIndexEntry).key)
		idx.logger.Debug("schema trie index evicted", "fingerprint", oldest.Value.(*schemaIndexEntry).key.fingerprint)
	}

	return trie, nil
}

// BuildAll eagerly builds tries for every object node reachable from root,
// under tok's fingerprint. Used by callers that want build-time failures
// (ErrEmptyConstraints) surfaced before generation starts, per scenario 4
// of the testable properties.
func (idx *SchemaTrieIndex) BuildAll(root *SchemaNode, tok TokenizerAdapter) error {
	return idx.buildAll(root, tok, make(map[*SchemaNode]bool))
}

func (idx *SchemaTrieIndex) buildAll(node *SchemaNode, tok TokenizerAdapter, visited map[*SchemaNode]bool) error {
	if node == nil || visited[node] {
		return nil
	}
	visited[node] = true

	switch node.Kind {
	case KindObject:
		if _, err := idx.TrieFor(node, tok); err != nil {
			return err
		}
		for _, child := range node.Properties {
			if err := idx.buildAll(child, tok, visited); err != nil {
				return err
			}
		}
	case KindArray:
		if err := idx.buildAll(node.Items, tok, visited); err != nil {
			return err
		}
	}
	return nil
}
