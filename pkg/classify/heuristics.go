package classify

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// maxMessageLen caps how much of a stderr line is copied into an issue.
const maxMessageLen = 500

// rule maps stderr phrases to an issue kind. Phrases are matched
// case-insensitively as substrings; patterns run against the lowercased line.
type rule struct {
	kind     Kind
	phrases  []string
	patterns []*regexp.Regexp
}

func (r rule) matches(lower string) bool {
	if matchesAny(lower, r.phrases) {
		return true
	}
	for _, re := range r.patterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

var rules = []rule{
	{kind: EngineNotFound, phrases: []string{
		"command not found",
		"executable file not found",
		"is not recognized as an internal or external command",
		"can't open file",
	}, patterns: []*regexp.Regexp{
		// A shell or env launcher that could not find the program, e.g.
		// "/bin/sh: 1: heron-engine: not found" or
		// "env: 'python3': no such file or directory". A file the engine
		// itself fails to open is not a launch failure.
		regexp.MustCompile(`^(?:\S*/)?(?:env|[a-z]*sh)(?:: line \d+|: \d+)?: .*(?:not found|no such file or directory)`),
	}},
	{kind: DependencyMissing, phrases: []string{
		"modulenotfounderror",
		"importerror",
		"no module named",
		"cannot import name",
		"cannot find module",
	}},
	{kind: ParseError, phrases: []string{
		"syntaxerror",
		"indentationerror",
		"taberror",
		"parseerror",
		"parse error",
		"failed to parse",
		"jsondecodeerror",
	}},
	{kind: GitUnavailable, phrases: []string{
		"not a git repository",
		"invalidgitrepositoryerror",
		"gitcommanderror",
		"does not have any commits",
	}},
}

// tracebackFrame matches the file/line header Python prints above a
// syntax error or a traceback frame.
var tracebackFrame = regexp.MustCompile(`File "([^"]+)", line (\d+)`)

// kindOf returns the first rule kind that matches text.
func kindOf(text string) (Kind, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.matches(lower) {
			return r.kind, true
		}
	}
	return "", false
}

// Scan applies every rule to every stderr line. All matches are returned in
// order of appearance; a line matching several rules yields one issue per
// kind, and identical (kind, line) pairs are reported once.
func Scan(stderr []byte) Issues {
	var (
		found   Issues
		seen    = map[string]bool{}
		lastLoc *SourceLocation
	)

	sc := bufio.NewScanner(bytes.NewReader(stderr))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := tracebackFrame.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			lastLoc = &SourceLocation{File: m[1], Line: n}
			continue
		}

		lower := strings.ToLower(line)
		for _, r := range rules {
			if !r.matches(lower) {
				continue
			}
			key := string(r.kind) + "\x00" + line
			if seen[key] {
				continue
			}
			seen[key] = true

			issue := Issue{Kind: r.kind, Message: truncate(line)}
			if r.kind == ParseError && lastLoc != nil {
				loc := *lastLoc
				issue.Location = &loc
			}
			found = append(found, issue)
		}
	}
	return found
}

func matchesAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// lastLine returns the last non-blank line of text.
func lastLine(text []byte) string {
	lines := strings.Split(strings.TrimSpace(string(text)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return truncate(l)
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}
