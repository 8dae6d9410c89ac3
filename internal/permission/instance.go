package permission

import "strings"

// Instance joins instance parts with the "::" separator, e.g. "News::42".
func Instance(parts ...string) string {
	return strings.Join(parts, "::")
}
