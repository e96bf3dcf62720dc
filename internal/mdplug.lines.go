package internal

import "strings"

// Line is one line of input together with the terminator that followed it.
type Line struct {
	Text       string
	Terminator string
}

// Line terminators recognized by SplitLines
const (
	TerminatorLF   = "\n"
	TerminatorCRLF = "\r\n"
)

// SplitLines splits input on "\n", keeping "\r\n" and "\n" terminators apart
// from the text so JoinLines can restore them. A trailing terminator yields a
// final empty line, matching strings.Split.
func SplitLines(input string) []Line {
	parts := strings.Split(input, TerminatorLF)
	lines := make([]Line, len(parts))
	for i, part := range parts {
		last := i == len(parts)-1
		switch {
		case last:
			lines[i] = Line{Text: part}
		case strings.HasSuffix(part, "\r"):
			lines[i] = Line{Text: part[:len(part)-1], Terminator: TerminatorCRLF}
		default:
			lines[i] = Line{Text: part, Terminator: TerminatorLF}
		}
	}
	return lines
}

// JoinLines concatenates lines with their terminators.
func JoinLines(lines []Line) string {
	size := 0
	for _, l := range lines {
		size += len(l.Text) + len(l.Terminator)
	}

	var sb strings.Builder
	sb.Grow(size)
	for _, l := range lines {
		sb.WriteString(l.Text)
		sb.WriteString(l.Terminator)
	}
	return sb.String()
}
