// Package envvar expands ${VAR} and ${VAR:-default} placeholders, so
// topology descriptors can reference per-host environment such as data
// directories and credentials without being rewritten per deployment.
package envvar

import (
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// pattern matches ${VAR_NAME} and ${VAR_NAME:-default} placeholders.
// Groups: 1 = variable name, 2 = optional default value (after :-).
var pattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(?::-([^}]*))?\}`)

const defaultSyntaxMarker = ":-"

// Expand replaces ${VAR_NAME} and ${VAR_NAME:-default} placeholders with
// their environment variable values. An unset variable resolves to its
// default when one is given, otherwise to an empty string with a warning.
func Expand(value string) string {
	if value == "" {
		return value
	}

	return pattern.ReplaceAllStringFunc(value, expandMatch)
}

// ExpandBytes expands placeholders in raw file content, such as a topology
// descriptor read from disk.
func ExpandBytes(data []byte) []byte {
	return []byte(Expand(string(data)))
}

func expandMatch(match string) string {
	groups := pattern.FindStringSubmatch(match)
	if len(groups) < 2 {
		return match
	}

	envValue, exists := os.LookupEnv(groups[1])
	if exists {
		return envValue
	}

	return resolveDefault(match, groups)
}

func resolveDefault(match string, groups []string) string {
	if len(groups) > 2 && groups[2] != "" {
		return groups[2]
	}

	// ${VAR:-} with an empty default resolves silently.
	if strings.Contains(match, defaultSyntaxMarker) {
		return ""
	}

	logrus.WithField("variable", groups[1]).Warn("environment variable not set")

	return ""
}
