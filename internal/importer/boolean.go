package importer

import "strings"

// ParseBool interprets the lenient yes/no vocabulary of the summary CSV. The
// second result is false when the value is not recognised.
func ParseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, true
	case "false", "0", "no", "n":
		return false, true
	default:
		return false, false
	}
}
