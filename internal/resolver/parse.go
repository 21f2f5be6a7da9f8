package resolver

// expr is one parsed ${name:value?default} expression.
type expr struct {
	name       string
	value      string
	hasValue   bool
	def        string
	hasDefault bool
	end        int // index just past the closing brace
}

func isNameTerminator(c byte) bool {
	return c == ':' || c == '}' || c == '?'
}

// parseExpr parses the expression starting at s[start:], which must begin
// with "${". ok is false when the text is not a complete expression.
func parseExpr(s string, start int) (e expr, ok bool) {
	i := start + 2

	nameEnd := i
	for nameEnd < len(s) && !isNameTerminator(s[nameEnd]) {
		nameEnd++
	}
	if nameEnd == i || nameEnd == len(s) {
		return expr{}, false
	}
	e.name = s[i:nameEnd]
	i = nameEnd

	if s[i] == ':' {
		i++
		valueEnd := i
		for valueEnd < len(s) && s[valueEnd] != '}' && s[valueEnd] != '?' {
			valueEnd++
		}
		if valueEnd == len(s) {
			return expr{}, false
		}
		e.value, e.hasValue = s[i:valueEnd], true
		i = valueEnd
	}

	if s[i] == '?' {
		i++
		closing, found := scanDefault(s, i)
		if !found {
			return expr{}, false
		}
		e.def, e.hasDefault = s[i:closing], true
		i = closing
	}

	if s[i] != '}' {
		return expr{}, false
	}
	e.end = i + 1
	return e, true
}

// scanDefault finds the brace closing an expression whose default clause
// starts at s[start]. Braces inside the clause nest: a '}' only terminates
// the expression at depth zero.
//
// When the scan reaches the end of s with braces still open, the clause is
// cut back to the last '}' it consumed, which then closes the expression.
// So "${r:x?{}" has the default "{". found is false when no '}' exists at all.
func scanDefault(s string, start int) (closing int, found bool) {
	depth := 0
	lastClose := -1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, true
			}
			depth--
			lastClose = i
		}
	}
	if lastClose < 0 {
		return 0, false
	}
	return lastClose, true
}
