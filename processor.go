package schemaguard

import (
	"log/slog"
	"math"
)

// LogitProcessor is the stateful orchestrator (C8): it implements the
// sampler-facing on_prompt/process_logits/on_sampled_token contract,
// owning the JSONStateMachine, ContextStack, the active TokenTriePath, and
// an error cell.
type LogitProcessor struct {
	schema *SchemaNode
	tok    TokenizerAdapter
	index  *SchemaTrieIndex
	reg    *SpecialTokenRegistry
	cfg    *Config
	logger *slog.Logger

	sm    *JSONStateMachine
	ctx   *ContextStack
	path  *TokenTriePath
	trie  *TokenTrie
	log   []int32
	err   *DecodeError
}

// NewLogitProcessor creates a processor for one generation request against
// the given (schema, tokenizer) pair. schema may be nil, meaning the root
// object is unconstrained. cfg/logger/index/registry default when nil.
func NewLogitProcessor(schema *SchemaNode, tok TokenizerAdapter, index *SchemaTrieIndex, reg *SpecialTokenRegistry, cfg *Config, logger *slog.Logger) *LogitProcessor {
	if index == nil {
		index = NewSchemaTrieIndex(0, logger)
	}
	if reg == nil {
		reg = NewSpecialTokenRegistry(logger)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LogitProcessor{
		schema: schema,
		tok:    tok,
		index:  index,
		reg:    reg,
		cfg:    cfg,
		logger: logger,
	}
}

// Err returns the error recorded in the processor's error cell, or nil.
func (p *LogitProcessor) Err() *DecodeError { return p.err }

// TokenLog returns the token ids sampled so far this generation.
func (p *LogitProcessor) TokenLog() []int32 { return p.log }

// OnPrompt resets all mutable state ahead of step 0, per spec §4.7.
func (p *LogitProcessor) OnPrompt(promptTokenIDs []int32) error {
	p.sm = NewJSONStateMachine()
	p.ctx = NewContextStack(p.schema)
	p.log = nil
	p.err = nil
	p.trie = nil
	p.path = nil

	rootKnown := p.schema != nil && p.schema.Kind == KindObject
	if rootKnown {
		trie, err := p.index.TrieFor(p.schema, p.tok)
		if err != nil {
			de, ok := err.(*DecodeError)
			if !ok {
				de = NewDecodeError(ErrEmptyConstraints, "", 0, err.Error())
			}
			p.err = de
			return de
		}
		p.trie = trie
		p.path = NewTokenTriePath(trie)
	}

	p.logger.Debug("processor reset", "prompt_tokens", len(promptTokenIDs), "schema_known", rootKnown)
	return nil
}

// ProcessLogits rewrites L per the policy decided by C7 for the current
// phase/frame/path. It is a pure function of internal state plus L: it
// never mutates anything visible to callers except the returned slice, and
// it never panics — on an internal error it returns a safety-constrained
// vector instead, per spec §7.
func (p *LogitProcessor) ProcessLogits(logits []float32) []float32 {
	if p.err != nil {
		return p.safetyConstrained(logits)
	}

	top, ok := p.ctx.Top()
	var frame ContextFrame
	if ok {
		frame = top
	} else {
		frame = ContextFrame{Node: NewLeaf(KindAny)}
	}

	decision := decideMask(maskInputs{
		Phase:            p.sm.Phase(),
		Frame:            frame,
		Path:             p.path,
		Registry:         p.reg,
		Tokenizer:        p.tok,
		SoftBias:         p.cfg.SoftBiasMagnitude,
		DynamicQuoteTopK: p.cfg.DynamicQuoteTopK,
		Logits:           logits,
		EOSTokenID:       p.tok.EOSTokenID,
	})

	out := make([]float32, len(logits))
	copy(out, logits)

	switch decision.Kind {
	case PolicyHard:
		if len(decision.AllowSet) == 0 && p.sm.Phase() != PhaseDone {
			position, partialKey := len(p.log), p.currentPartialKey()
			p.err = NewDecodeError(ErrNoValidTokens, partialKey, position, "")
			p.logger.Warn("no valid tokens", "position", position, "partial_key", partialKey)
			return p.safetyConstrained(logits)
		}
		allow := make(map[int32]bool, len(decision.AllowSet))
		for _, id := range decision.AllowSet {
			allow[id] = true
		}
		for id := range out {
			if !allow[int32(id)] {
				out[id] = float32(math.Inf(-1))
			}
		}

	case PolicySoft:
		for _, id := range decision.PreferSet {
			if int(id) < len(out) {
				out[id] += decision.Bias
			}
		}

	case PolicyNone:
	}

	p.logger.Debug("process_logits", "phase", p.sm.Phase(), "policy", decision.Kind, "allow_set_size", len(decision.AllowSet))
	return out
}

// currentPartialKey decodes the key characters accumulated since the
// active trie path was last reset, used to annotate no_valid_tokens.
func (p *LogitProcessor) currentPartialKey() string {
	if p.path == nil {
		return p.sm.CurrentKey()
	}
	return p.tok.Decode(p.path.Tokens())
}

// safetyConstrained implements §7's error-cell behaviour: scale all logits
// by 0.9 and boost EOS by eos_boost_on_safety, so the sampler terminates
// quickly once the driver observes the error cell.
func (p *LogitProcessor) safetyConstrained(logits []float32) []float32 {
	out := make([]float32, len(logits))
	for i, v := range logits {
		out[i] = v * 0.9
	}
	if id, ok := p.tok.EOSTokenID(); ok && int(id) < len(out) {
		out[id] += p.cfg.EOSBoostOnSafety
	}
	return out
}

// OnSampledToken advances the state machine, context stack, and active
// trie path by one sampled token, per spec §4.7. State changes are atomic:
// either both C5 and C6 advance, or an error is recorded and neither does
// further work beyond that recording.
func (p *LogitProcessor) OnSampledToken(t int32) {
	if p.err != nil {
		return
	}

	p.log = append(p.log, t)
	text := p.tok.DecodeOne(t)

	wasInKey := p.sm.Phase() == PhaseInStringKey || p.sm.Phase() == PhaseInStringKeyEscaped

	for i := 0; i < len(text); i++ {
		p.sm.Feed(text[i])
	}

	stillInKey := p.sm.Phase() == PhaseInStringKey || p.sm.Phase() == PhaseInStringKeyEscaped

	if wasInKey && stillInKey && p.path != nil {
		if !p.path.Append(t) {
			partialKey := p.currentPartialKey()
			p.err = NewDecodeError(ErrInvalidTokenSelected, partialKey, len(p.log)-1, "token id not a trie edge")
			p.logger.Error("invalid token selected", "token_id", t, "partial_key", partialKey)
			return
		}
	}

	if wasInKey && !stillInKey {
		key := p.sm.CurrentKey()
		p.ctx.MarkKeyEmitted(key)
		p.ctx.SetPendingKey(key)
		p.advanceTrieForTopFrame()
	}

	p.handleBrackets(text)
}

// advanceTrieForTopFrame reselects the active trie for the (possibly new)
// top context frame — called once a key has just finished, since the
// trie's owning object may change on the next `{`/`[`.
func (p *LogitProcessor) advanceTrieForTopFrame() {
	top, ok := p.ctx.Top()
	if !ok || !top.Known() || top.Kind != frameObject {
		p.trie, p.path = nil, nil
		return
	}
	trie, err := p.index.TrieFor(top.Node, p.tok)
	if err != nil {
		de, ok := err.(*DecodeError)
		if !ok {
			de = NewDecodeError(ErrEmptyConstraints, "", len(p.log), err.Error())
		}
		p.err = de
		return
	}
	p.trie = trie
	p.path = NewTokenTriePath(trie)
}

// handleBrackets walks the characters of a just-decoded token, pushing and
// popping the context stack in lockstep with the state machine's own
// bracket stack, and clearing the pending key on the first non-whitespace
// character of a primitive value.
func (p *LogitProcessor) handleBrackets(text string) {
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			p.ctx.PushObject()
			p.resetTrieForTopFrame()
		case '[':
			p.ctx.PushArray()
			p.resetTrieForTopFrame()
		case '}', ']':
			p.ctx.Pop()
			p.resetTrieForTopFrame()
		case '"':
			// Handled by the key/value string transitions themselves;
			// pending-key clearing for primitives below covers values.
		default:
			if !isWhitespace(c) {
				top, ok := p.ctx.Top()
				if ok && top.Kind == frameObject {
					// A primitive value's first character: clear any
					// pending key without a push, per spec §4.5. The
					// check uses the phase reached after the whole
					// token: an open string value, number or literal.
					switch p.sm.Phase() {
					case PhaseInStringValue, PhaseInNumberInt, PhaseInLiteral:
						p.ctx.ClearPendingKey()
					}
				}
			}
		}
	}
}

// resetTrieForTopFrame reselects the active trie/path after a bracket
// push or pop changes the top context frame.
func (p *LogitProcessor) resetTrieForTopFrame() {
	top, ok := p.ctx.Top()
	if !ok || !top.Known() || top.Kind != frameObject {
		p.trie, p.path = nil, nil
		return
	}
	trie, err := p.index.TrieFor(top.Node, p.tok)
	if err != nil {
		de, ok := err.(*DecodeError)
		if !ok {
			de = NewDecodeError(ErrEmptyConstraints, "", len(p.log), err.Error())
		}
		p.err = de
		return
	}
	p.trie = trie
	p.path = NewTokenTriePath(trie)
}
