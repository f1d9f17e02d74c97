package utils

import "strings"

// IsValidKeyComment checks that a key comment fits on one line of an
// authorized_keys entry.
func IsValidKeyComment(comment string) bool {
	return !strings.ContainsAny(comment, "\r\n\x00")
}
