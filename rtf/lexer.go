package rtf

import (
	"math"

	"github.com/wudi/rtfkit/observability"
	"github.com/wudi/rtfkit/recovery"
)

func isAlpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// anomaly logs a recoverable parser anomaly and consults the recovery
// strategy. A non-nil return aborts the document.
func (s *scan) anomaly(off int64, component string, err error) error {
	s.logger.Warn("recoverable anomaly",
		observability.String("component", component),
		observability.Int64("offset", off),
		observability.Error("err", err))
	loc := recovery.Location{ByteOffset: off, GroupDepth: s.stack.elements, Component: component}
	if s.strategy.OnError(s.ctx, err, loc) == recovery.ActionFail {
		return err
	}
	return nil
}

// consume runs the tokenizer over one chunk. base is the absolute offset of
// chunk[0] in the document; parser state carries across calls, so any chunk
// boundary is valid.
func (s *scan) consume(chunk []byte, base int64) error {
	i := 0
	for i < len(chunk) {
		switch s.state.state {
		case parseMain:
			b := chunk[i]
			i++
			switch b {
			case '{':
				s.stack.push(&s.state)
			case '}':
				if h := s.state.handler; h != nil {
					s.state.handler = nil
					if err := h.End(); err != nil {
						return err
					}
				}
				if s.stack.pop(&s.state) && !s.stack.warned {
					s.stack.warned = true
					if err := s.anomaly(base+int64(i-1), "group", errUnbalancedGroup); err != nil {
						return err
					}
				}
			case '\\':
				s.state.state = parseControl
			default:
				i--
				end := i + 1
				for end < len(chunk) {
					if c := chunk[end]; c == '{' || c == '}' || c == '\\' {
						break
					}
					end++
				}
				if h := s.state.handler; h != nil {
					s.pos = base + int64(i)
					if err := h.Process(chunk[i:end]); err != nil {
						s.state.handler = nil
						h.End()
						return err
					}
				}
				i = end
			}

		case parseControl:
			if isAlpha(chunk[i]) {
				s.state.state = parseControlWord
				s.state.wordLen = 0
			} else {
				s.state.state = parseControlSymbol
			}

		case parseControlSymbol:
			// \'xx escapes and other control symbols are not interpreted.
			i++
			s.state.state = parseMain

		case parseControlWord:
			b := chunk[i]
			switch {
			case s.state.wordLen == maxControlWord:
				// Not consumed: the offending byte re-enters MAIN so a
				// brace here still balances the stack.
				if err := s.anomaly(base+int64(i), "control-word", errControlWordTooLong); err != nil {
					return err
				}
				s.state.state = parseMain
			case isAlpha(b):
				s.state.word[s.state.wordLen] = b
				s.state.wordLen++
				i++
			case isSpaceByte(b):
				// The whitespace byte becomes the terminator seen in
				// action-table keys.
				s.state.word[s.state.wordLen] = b
				s.state.wordLen++
				i++
				s.state.state = parseInterpretControlWord
			case isDigit(b):
				s.state.state = parseControlWordParam
				s.state.param = 0
				s.state.paramSign = 1
			case b == '-':
				i++
				s.state.state = parseControlWordParam
				s.state.param = 0
				s.state.paramSign = -1
			default:
				s.state.state = parseInterpretControlWord
			}

		case parseControlWordParam:
			b := chunk[i]
			switch {
			case isDigit(b):
				d := int64(b - '0')
				if s.state.param > (math.MaxInt64-d)/10 {
					if err := s.anomaly(base+int64(i), "control-word-param", errParamOverflow); err != nil {
						return err
					}
					s.state.state = parseMain
				} else {
					s.state.param = s.state.param*10 + d
					i++
				}
			case isAlpha(b):
				// RTF allows a letter delimiter after the parameter.
				i++
			default:
				if s.state.paramSign < 0 {
					s.state.param = -s.state.param
				}
				s.state.state = parseInterpretControlWord
			}

		case parseInterpretControlWord:
			word := string(s.state.word[:s.state.wordLen])
			if act, ok := s.actions.lookup(word); ok {
				if h := s.state.handler; h != nil {
					// Premature end of the previous extraction in this
					// group: recover what was dumped before rebinding.
					s.state.handler = nil
					if err := h.End(); err != nil {
						return err
					}
				}
				s.dispatch(act)
			}
			s.state.state = parseMain
		}
	}
	return nil
}
