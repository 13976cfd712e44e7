package conversation

import (
	"strings"
)

// CommandKind enumerates the in-band commands a participant may embed in its
// response text.
type CommandKind string

const (
	CmdImage      CommandKind = "image"
	CmdVideo      CommandKind = "video"
	CmdAddAI      CommandKind = "add_ai"
	CmdRemoveAI   CommandKind = "remove_ai"
	CmdMuteSelf   CommandKind = "mute_self"
	CmdListModels CommandKind = "list_models"
)

// commandArity maps each keyword to its required argument count. Keyword
// matching is exact and case-sensitive.
var commandArity = map[CommandKind]int{
	CmdImage:      1,
	CmdVideo:      1,
	CmdAddAI:      2,
	CmdRemoveAI:   1,
	CmdMuteSelf:   0,
	CmdListModels: 0,
}

// Command is one extracted directive with its positional arguments and the
// byte range it occupied in the source text.
type Command struct {
	Kind  CommandKind
	Args  []string
	Start int // byte offset of the '!' in the source text
	End   int // byte offset just past the last consumed byte
}

// ParseCommands extracts all valid commands from a response text in
// left-to-right order. An occurrence with the wrong argument count is left as
// literal text and produces no command.
func ParseCommands(text string) []Command {
	var commands []Command

	for i := 0; i < len(text); i++ {
		if text[i] != '!' {
			continue
		}

		kind, ok := matchKeyword(text[i+1:])
		if !ok {
			continue
		}

		arity := commandArity[kind]
		argStart := i + 1 + len(kind)
		args, end, ok := parseArgs(text, argStart, arity)
		if !ok {
			// Wrong argument count: this occurrence stays literal.
			i = argStart - 1
			continue
		}

		commands = append(commands, Command{
			Kind:  kind,
			Args:  args,
			Start: i,
			End:   end,
		})
		i = end - 1
	}

	return commands
}

// StripCommands removes the given command spans from text, collapsing the
// whitespace left behind. The commands must be sorted by Start (the order
// ParseCommands returns them in).
func StripCommands(text string, commands []Command) string {
	if len(commands) == 0 {
		return text
	}

	var b strings.Builder
	prev := 0
	for _, cmd := range commands {
		b.WriteString(text[prev:cmd.Start])
		prev = cmd.End
	}
	b.WriteString(text[prev:])

	// Collapse runs of spaces introduced by removal, keep newlines.
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSpace(out)
}

// matchKeyword matches one of the recognized keywords at the start of s.
// Longer keywords are tried first so "list_models" is not cut short. The
// keyword must not be followed by an identifier character.
func matchKeyword(s string) (CommandKind, bool) {
	for _, kind := range []CommandKind{CmdListModels, CmdRemoveAI, CmdMuteSelf, CmdAddAI, CmdImage, CmdVideo} {
		kw := string(kind)
		if !strings.HasPrefix(s, kw) {
			continue
		}
		if len(s) > len(kw) && isWordChar(s[len(kw)]) {
			continue
		}
		return kind, true
	}
	return "", false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseArgs reads exactly want double-quoted arguments starting at pos,
// separated by whitespace. Returns the arguments, the offset just past the
// last consumed byte, and whether the count matched. Inside a quoted argument
// `\"` is the only escape.
func parseArgs(text string, pos, want int) ([]string, int, bool) {
	args := make([]string, 0, want)
	end := pos

	for len(args) < want {
		// Skip whitespace before the next argument.
		i := end
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i >= len(text) || text[i] != '"' {
			return nil, 0, false
		}

		arg, next, ok := parseQuoted(text, i)
		if !ok {
			return nil, 0, false
		}
		args = append(args, arg)
		end = next
	}

	// A trailing quoted argument beyond the arity means the occurrence does
	// not match the grammar for this keyword.
	i := end
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] == '"' {
		return nil, 0, false
	}

	return args, end, true
}

// parseQuoted reads a double-quoted string starting at the opening quote.
func parseQuoted(text string, pos int) (string, int, bool) {
	var b strings.Builder
	i := pos + 1
	for i < len(text) {
		c := text[i]
		switch c {
		case '\\':
			if i+1 < len(text) && text[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			b.WriteByte(c)
			i++
		case '"':
			return b.String(), i + 1, true
		case '\n':
			return "", 0, false
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, false
}
