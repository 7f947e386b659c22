package gpiocmd

// Args are the tokens of one line. Each token aliases the line buffer and
// is only valid until the line is cleared after dispatch.
type Args [][]byte

// At returns token i if present.
func (a Args) At(i int) ([]byte, bool) {
	if i < 0 || i >= len(a) {
		return nil, false
	}
	return a[i], true
}

// Strings copies the tokens out of the line buffer.
func (a Args) Strings() []string {
	strs := make([]string, len(a))
	for n, tok := range a {
		strs[n] = string(tok)
	}
	return strs
}

func isPrint(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// isLineEnd reports bytes terminating a line: CR, LF, NUL and every
// other non-printable byte.
func isLineEnd(b byte) bool {
	return b == '\r' || b == '\n' || b == 0 || !isPrint(b)
}

func isTokenDelim(b byte) bool {
	return !isPrint(b) || isSpace(b)
}

// Tokenize appends the maximal runs of non-delimiter bytes of line to
// args and returns the extended slice.
func Tokenize(line []byte, args Args) Args {
	for i := 0; i < len(line); {
		for i < len(line) && isTokenDelim(line[i]) {
			i++
		}
		start := i
		for i < len(line) && !isTokenDelim(line[i]) {
			i++
		}
		if i > start {
			args = append(args, line[start:i:i])
		}
	}
	return args
}
