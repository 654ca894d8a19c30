package schemaguard

// Phase is an element of the JSONStateMachine's state set, describing the
// syntactic position of the cursor in the partial output.
type Phase int

const (
	PhaseRoot Phase = iota
	PhaseObjExpectKeyOrEnd
	PhaseObjExpectColon
	PhaseObjExpectValue
	PhaseObjExpectCommaOrEnd
	PhaseArrExpectValueOrEnd
	PhaseArrExpectCommaOrEnd
	PhaseInStringKey
	PhaseInStringKeyEscaped
	PhaseInStringValue
	PhaseInStringValueEscaped
	PhaseInNumberInt
	PhaseInNumberFrac
	PhaseInNumberExp
	PhaseInLiteral
	PhaseDone
	PhaseError
)

// frameKind distinguishes the two bracket kinds the stack tracks.
type frameKind int

const (
	frameObject frameKind = iota
	frameArray
)

// JSONStateMachine is a character-driven finite automaton tracking the
// syntactic phase of a partially generated JSON document and its bracket
// stack, per spec §4.2.
type JSONStateMachine struct {
	phase            Phase
	stack            []frameKind
	currentKeyBuffer []byte
	literalWant      string // the literal currently being matched ("true", "false", "null")
	literalPos       int
}

// NewJSONStateMachine creates a machine positioned at PhaseRoot with an
// empty stack.
func NewJSONStateMachine() *JSONStateMachine {
	return &JSONStateMachine{phase: PhaseRoot}
}

// Phase returns the current phase.
func (m *JSONStateMachine) Phase() Phase { return m.phase }

// Depth returns the current bracket stack depth.
func (m *JSONStateMachine) Depth() int { return len(m.stack) }

// CurrentKey returns the key characters accumulated since the opening
// quote of the current object key; valid once phase reaches
// PhaseObjExpectColon.
func (m *JSONStateMachine) CurrentKey() string { return string(m.currentKeyBuffer) }

// topFrame reports the frame kind on top of the stack, and whether the
// stack is non-empty.
func (m *JSONStateMachine) topFrame() (frameKind, bool) {
	if len(m.stack) == 0 {
		return 0, false
	}
	return m.stack[len(m.stack)-1], true
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Feed advances the machine by one character. It is a no-op once the
// machine has reached PhaseError (absorbing). In PhaseDone, trailing
// whitespace is ignored and any other character moves to PhaseError.
func (m *JSONStateMachine) Feed(c byte) {
	if m.phase == PhaseError {
		return
	}
	if m.phase == PhaseDone {
		if isWhitespace(c) {
			return
		}
		m.phase = PhaseError
		return
	}

	switch m.phase {
	case PhaseRoot:
		m.feedValueStarter(c, true)

	case PhaseObjExpectKeyOrEnd:
		switch {
		case c == '"':
			m.currentKeyBuffer = m.currentKeyBuffer[:0]
			m.phase = PhaseInStringKey
		case c == '}':
			m.popAndAfterValue()
		case isWhitespace(c):
		default:
			m.phase = PhaseError
		}

	case PhaseInStringKey:
		switch c {
		case '\\':
			m.phase = PhaseInStringKeyEscaped
		case '"':
			m.phase = PhaseObjExpectColon
		default:
			m.currentKeyBuffer = append(m.currentKeyBuffer, c)
		}

	case PhaseInStringKeyEscaped:
		m.currentKeyBuffer = append(m.currentKeyBuffer, c)
		m.phase = PhaseInStringKey

	case PhaseInStringValue:
		switch c {
		case '\\':
			m.phase = PhaseInStringValueEscaped
		case '"':
			m.afterValue()
		}

	case PhaseInStringValueEscaped:
		m.phase = PhaseInStringValue

	case PhaseObjExpectColon:
		switch {
		case c == ':':
			m.phase = PhaseObjExpectValue
		case isWhitespace(c):
		default:
			m.phase = PhaseError
		}

	case PhaseObjExpectValue:
		if isWhitespace(c) {
			return
		}
		m.feedValueStarter(c, true)

	case PhaseArrExpectValueOrEnd:
		switch {
		case c == ']':
			m.popAndAfterValue()
		case isWhitespace(c):
		default:
			m.feedValueStarter(c, false)
		}

	case PhaseInNumberInt:
		m.feedNumber(c, PhaseInNumberInt)

	case PhaseInNumberFrac:
		m.feedNumber(c, PhaseInNumberFrac)

	case PhaseInNumberExp:
		m.feedNumber(c, PhaseInNumberExp)

	case PhaseInLiteral:
		if m.literalPos < len(m.literalWant) && c == m.literalWant[m.literalPos] {
			m.literalPos++
			if m.literalPos == len(m.literalWant) {
				m.afterValue()
			}
			return
		}
		m.phase = PhaseError

	case PhaseObjExpectCommaOrEnd:
		switch {
		case c == ',':
			m.phase = PhaseObjExpectKeyOrEnd
		case c == '}':
			m.popAndAfterValue()
		case isWhitespace(c):
		default:
			m.phase = PhaseError
		}

	case PhaseArrExpectCommaOrEnd:
		switch {
		case c == ',':
			m.phase = PhaseArrExpectValueOrEnd
		case c == ']':
			m.popAndAfterValue()
		case isWhitespace(c):
		default:
			m.phase = PhaseError
		}

	default:
		m.phase = PhaseError
	}
}

// feedValueStarter dispatches on the first character of a value. The bool
// parameter is ignored: call sites pass true from root and object-value
// positions and false from array-value positions, and both behave the same.
func (m *JSONStateMachine) feedValueStarter(c byte, _ bool) {
	switch {
	case c == '{':
		m.stack = append(m.stack, frameObject)
		m.phase = PhaseObjExpectKeyOrEnd
	case c == '[':
		m.stack = append(m.stack, frameArray)
		m.phase = PhaseArrExpectValueOrEnd
	case c == '"':
		m.phase = PhaseInStringValue
	case isDigit(c) || c == '-':
		m.phase = PhaseInNumberInt
	case c == 't':
		m.literalWant, m.literalPos = "true", 1
		m.phase = PhaseInLiteral
	case c == 'f':
		m.literalWant, m.literalPos = "false", 1
		m.phase = PhaseInLiteral
	case c == 'n':
		m.literalWant, m.literalPos = "null", 1
		m.phase = PhaseInLiteral
	case isWhitespace(c):
	default:
		m.phase = PhaseError
	}
}

// feedNumber implements the three-subphase number mini-state. A
// non-numeric character exits the number phase without being consumed by
// it: feedNumber applies afterValue and then feeds that same character
// into the resulting phase itself, so callers never re-feed it.
func (m *JSONStateMachine) feedNumber(c byte, sub Phase) {
	switch {
	case isDigit(c):
		m.phase = sub
	case c == '.' && sub == PhaseInNumberInt:
		m.phase = PhaseInNumberFrac
	case (c == 'e' || c == 'E') && sub != PhaseInNumberExp:
		m.phase = PhaseInNumberExp
	case (c == '+' || c == '-') && sub == PhaseInNumberExp:
		m.phase = PhaseInNumberExp
	default:
		m.afterValue()
		m.Feed(c)
	}
}

// afterValue applies the "after value" meta-transition: the phase that
// follows a completed value depends on the enclosing frame.
func (m *JSONStateMachine) afterValue() {
	kind, ok := m.topFrame()
	if !ok {
		m.phase = PhaseDone
		return
	}
	if kind == frameObject {
		m.phase = PhaseObjExpectCommaOrEnd
	} else {
		m.phase = PhaseArrExpectCommaOrEnd
	}
}

// popAndAfterValue pops the top frame (closing `}` or `]`) and re-enters
// the after-value transition at the new top.
func (m *JSONStateMachine) popAndAfterValue() {
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
	m.afterValue()
}
