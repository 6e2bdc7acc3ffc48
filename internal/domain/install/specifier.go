package install

import "strings"

// nameTerminators are the characters that end the bare package name of a
// requirement line: version operators (==, >=, <=, ~=, !=, <, >), extras,
// environment markers, direct references and whitespace.
const nameTerminators = "=<>!~[;@ \t"

// Specifier is one manifest entry, for example "requests" or "requests==2.31.0".
type Specifier string

// Name returns the bare package name, the text before the first version separator.
func (s Specifier) Name() string {
	text := strings.TrimSpace(string(s))
	if i := strings.IndexAny(text, nameTerminators); i >= 0 {
		text = text[:i]
	}

	return strings.TrimSpace(text)
}

// String returns the full specifier including any version pin.
func (s Specifier) String() string {
	return string(s)
}
