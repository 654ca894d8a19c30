package schemaguard

// PolicyKind distinguishes the three outcomes a MaskPolicy decision can
// take, per spec §4.6.
type PolicyKind int

const (
	// PolicyNone applies no constraint to this step's logits.
	PolicyNone PolicyKind = iota
	// PolicyHard masks (sets to -Inf) every logit outside AllowSet.
	PolicyHard
	// PolicySoft adds Bias to every logit in PreferSet.
	PolicySoft
)

// MaskDecision is the output of the pure MaskPolicy function.
type MaskDecision struct {
	Kind      PolicyKind
	AllowSet  []int32
	PreferSet []int32
	Bias      float32
}

// DefaultSoftBiasMagnitude is the default additive bias spec §6 assigns to
// a PolicySoft prefer-set.
const DefaultSoftBiasMagnitude = 2.5

// maskInputs bundles everything the pure MaskPolicy function reads: the
// phase, the active context frame, the current trie path (nil when none is
// active), the special token registry, the tokenizer, soft bias magnitude,
// dynamic quote top-K, and the raw logits (used only for dynamic quote
// discovery).
type maskInputs struct {
	Phase            Phase
	Frame            ContextFrame
	Path             *TokenTriePath
	Registry         *SpecialTokenRegistry
	Tokenizer        TokenizerAdapter
	SoftBias         float32
	DynamicQuoteTopK int
	Logits           []float32
	EOSTokenID       (func() (int32, bool))
}

// decideMask is the pure MaskPolicy function (C7): given the current
// decode-step inputs, returns the policy decision per the table in spec
// §4.6. It performs no I/O and mutates nothing.
func decideMask(in maskInputs) MaskDecision {
	reg, tok := in.Registry, in.Tokenizer

	switch in.Phase {
	case PhaseObjExpectKeyOrEnd, PhaseArrExpectValueOrEnd:
		if in.Phase == PhaseArrExpectValueOrEnd {
			// Array value-or-end is a superset: any value starter is
			// admissible, not just key openers; see the object/array
			// symmetry note in §4.6.
			return decideValueStarterPolicy(in, true)
		}
		if in.Frame.Known() && in.Path != nil {
			allow := append([]int32{}, in.Path.AllowedNextExcluding(in.Frame.Emitted)...)
			allow = append(allow, reg.Get(tok, classQuote).Exact...)
			if requiredSatisfied(in.Frame) {
				allow = append(allow, reg.Get(tok, classBraceClose).Exact...)
			}
			return hardOrEOS(in, allow)
		}
		prefer := append([]int32{}, reg.Get(tok, classQuote).Exact...)
		prefer = append(prefer, reg.Get(tok, classBraceClose).Exact...)
		return MaskDecision{Kind: PolicySoft, PreferSet: prefer, Bias: softBias(in)}

	case PhaseInStringKey:
		if in.Frame.Known() && in.Path != nil {
			allow := append([]int32{}, in.Path.AllowedNextExcluding(in.Frame.Emitted)...)
			if in.Path.AtTerminal() {
				if key, ok := in.Path.CompletedKey(); ok && !in.Frame.HasEmitted(key) {
					allow = append(allow, reg.ClosingQuoteTokens(tok, in.Logits, in.DynamicQuoteTopK)...)
					allow = append(allow, reg.Get(tok, classBackslash).Contains...)
				}
			}
			return hardOrEOS(in, allow)
		}
		return MaskDecision{Kind: PolicyNone}

	case PhaseInStringKeyEscaped:
		return MaskDecision{Kind: PolicyNone}

	case PhaseObjExpectColon:
		return hardOrEOS(in, append([]int32{}, reg.Get(tok, classColon).Exact...))

	case PhaseObjExpectValue:
		return decideValueStarterPolicy(in, false)

	case PhaseInStringValue, PhaseInStringValueEscaped, PhaseInNumberInt, PhaseInNumberFrac, PhaseInNumberExp, PhaseInLiteral:
		return MaskDecision{Kind: PolicyNone}

	case PhaseObjExpectCommaOrEnd:
		allow := append([]int32{}, reg.Get(tok, classComma).Exact...)
		if requiredSatisfied(in.Frame) {
			allow = append(allow, reg.Get(tok, classBraceClose).Exact...)
		}
		return hardOrEOS(in, allow)

	case PhaseArrExpectCommaOrEnd:
		allow := append([]int32{}, reg.Get(tok, classComma).Exact...)
		allow = append(allow, reg.Get(tok, classBrackClose).Exact...)
		return hardOrEOS(in, allow)

	case PhaseDone:
		if id, ok := in.EOSTokenID(); ok {
			return MaskDecision{Kind: PolicyHard, AllowSet: []int32{id}}
		}
		return MaskDecision{Kind: PolicyNone}

	default: // PhaseError and anything unrecognized: caller handles via §7.
		return MaskDecision{Kind: PolicyNone}
	}
}

// decideValueStarterPolicy implements the "prefer value-starter tokens"
// soft policy shared by obj.expect_value and arr.expect_value_or_end.
func decideValueStarterPolicy(in maskInputs, allowArrayClose bool) MaskDecision {
	reg, tok := in.Registry, in.Tokenizer
	prefer := append([]int32{}, reg.Get(tok, classQuote).Exact...)
	prefer = append(prefer, reg.Get(tok, classBraceOpen).Exact...)
	prefer = append(prefer, reg.Get(tok, classBrackOpen).Exact...)
	prefer = append(prefer, reg.Get(tok, classDigit).Exact...)
	prefer = append(prefer, reg.Get(tok, classMinus).Exact...)
	prefer = append(prefer, reg.Get(tok, classBoolTrue).Exact...)
	prefer = append(prefer, reg.Get(tok, classBoolFalse).Exact...)
	prefer = append(prefer, reg.Get(tok, classNull).Exact...)
	if allowArrayClose {
		prefer = append(prefer, reg.Get(tok, classBrackClose).Exact...)
	}
	return MaskDecision{Kind: PolicySoft, PreferSet: prefer, Bias: softBias(in)}
}

// requiredSatisfied reports whether every key frame.Node.Required names has
// already been emitted, per the "if object may legally end now" condition
// on obj.expect_key_or_end's and obj.expect_comma_or_end's `}` offer. A
// frame with no known object schema imposes no requirement.
func requiredSatisfied(frame ContextFrame) bool {
	if frame.Node == nil || frame.Node.Kind != KindObject {
		return true
	}
	for _, key := range frame.Node.Keys() {
		if frame.Node.IsRequired(key) && !frame.HasEmitted(key) {
			return false
		}
	}
	return true
}

// hardOrEOS implements the fallback rule: "when a hard policy yields an
// empty allow-set for a phase that admits EOS, include EOS; otherwise the
// processor raises no_valid_tokens." PhaseDone is the only phase that admits
// EOS; in every other phase an empty allow-set is returned as is.
func hardOrEOS(in maskInputs, allow []int32) MaskDecision {
	if len(allow) == 0 && in.Phase == PhaseDone {
		if id, ok := in.EOSTokenID(); ok {
			return MaskDecision{Kind: PolicyHard, AllowSet: []int32{id}}
		}
	}
	return MaskDecision{Kind: PolicyHard, AllowSet: allow}
}

func softBias(in maskInputs) float32 {
	if in.SoftBias != 0 {
		return in.SoftBias
	}
	return DefaultSoftBiasMagnitude
}
