package sample

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

// Synthesize deterministically produces a string matching pattern.
//
// The strategy walks the parsed regular expression and emits the minimal
// deterministic witness: literals verbatim, the first alternative of any
// alternation, the lowest rune of a character class, and the minimum
// repetition count of every quantifier. The witness is verified against the
// compiled pattern before being returned; a pattern whose minimal witness
// does not match (or that cannot be parsed) is reported as unsatisfiable
// rather than guessed at.
func Synthesize(pattern string) (string, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", fmt.Errorf("pattern %q cannot be parsed: %v", pattern, err)
	}

	var sb strings.Builder
	if err := emit(parsed, &sb); err != nil {
		return "", fmt.Errorf("pattern %q: %v", pattern, err)
	}
	out := sb.String()

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("pattern %q cannot be compiled: %v", pattern, err)
	}
	if !re.MatchString(out) {
		return "", fmt.Errorf("pattern %q: synthesized witness %q does not match", pattern, out)
	}
	return out, nil
}

// emit writes the minimal witness for one regexp node.
func emit(re *syntax.Regexp, sb *strings.Builder) error {
	switch re.Op {
	case syntax.OpLiteral:
		sb.WriteString(string(re.Rune))
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return fmt.Errorf("empty character class")
		}
		sb.WriteRune(classRune(re.Rune))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		sb.WriteByte('a')
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if err := emit(sub, sb); err != nil {
				return err
			}
		}
	case syntax.OpAlternate:
		if len(re.Sub) == 0 {
			return fmt.Errorf("empty alternation")
		}
		return emit(re.Sub[0], sb)
	case syntax.OpCapture:
		return emit(re.Sub[0], sb)
	case syntax.OpStar, syntax.OpQuest:
		// Zero repetitions is the minimal witness.
	case syntax.OpPlus:
		return emit(re.Sub[0], sb)
	case syntax.OpRepeat:
		for i := 0; i < re.Min; i++ {
			if err := emit(re.Sub[0], sb); err != nil {
				return err
			}
		}
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText, syntax.OpEmptyMatch:
		// Anchors and empty matches contribute nothing.
	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Boundary assertions depend on surrounding text; the verification
		// step catches witnesses they invalidate.
	default:
		return fmt.Errorf("unsupported construct %v", re.Op)
	}
	return nil
}

// classRune picks a deterministic rune from sorted class ranges, preferring
// the first printable one so negated classes do not emit control characters.
func classRune(ranges []rune) rune {
	for i := 0; i < len(ranges)-1; i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if hi < ' ' {
			continue
		}
		if lo < ' ' {
			lo = ' '
		}
		return lo
	}
	return ranges[0]
}
