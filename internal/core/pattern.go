package core

import (
	"strings"

	"github.com/gobwas/glob"
)

// compilePattern - builds a key matcher where '*' is the only wildcard and
// matches any sequence including the empty one. Every other glob
// metacharacter is quoted first, so keys containing '?', '[' or '{' are
// matched literally. The pattern is anchored to the whole key.
func compilePattern(pattern string) (glob.Glob, error) {
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = glob.QuoteMeta(parts[i])
	}
	return glob.Compile(strings.Join(parts, "*"))
}
