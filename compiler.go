package schemaguard

import (
	"fmt"
	"log/slog"
	"sync"
)

// DraftCompiler lowers DraftSchema trees (the caller-facing draft-07 shaped
// input) into immutable *SchemaNode trees, caching the result by the
// draft's $id when one is present. Mirrors the teacher's Compiler.schemas
// RWMutex-protected cache, trimmed to the one concern this package needs:
// schema compilation, not network loading or media-type decoding.
type DraftCompiler struct {
	mu      sync.RWMutex
	schemas map[string]*SchemaNode // keyed by DraftSchema.ID, when non-empty

	logger *slog.Logger
}

// NewDraftCompiler creates a DraftCompiler with an empty cache. A nil
// logger defaults to slog.Default().
func NewDraftCompiler(logger *slog.Logger) *DraftCompiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftCompiler{
		schemas: make(map[string]*SchemaNode),
		logger:  logger,
	}
}

// Compile resolves draft's internal $ref/$defs pointers and lowers it into
// a *SchemaNode tree. If draft carries a non-empty $id that has already
// been compiled, the cached node is returned instead of recompiling.
func (c *DraftCompiler) Compile(draft *DraftSchema) (*SchemaNode, error) {
	if draft == nil {
		return nil, fmt.Errorf("schemaguard: cannot compile nil draft schema")
	}

	if draft.ID != "" {
		c.mu.RLock()
		cached, ok := c.schemas[draft.ID]
		c.mu.RUnlock()
		if ok {
			c.logger.Debug("draft schema cache hit", "id", draft.ID)
			return cached, nil
		}
	}

	resolved, err := draft.resolveRefs(draft)
	if err != nil {
		return nil, err
	}

	node, err := resolved.toSchemaNode()
	if err != nil {
		return nil, err
	}

	if draft.ID != "" {
		c.mu.Lock()
		c.schemas[draft.ID] = node
		c.mu.Unlock()
		c.logger.Debug("draft schema compiled and cached", "id", draft.ID)
	}

	return node, nil
}

// Get returns a previously compiled node by $id, if cached.
func (c *DraftCompiler) Get(id string) (*SchemaNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.schemas[id]
	return node, ok
}
