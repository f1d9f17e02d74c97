package utils

import (
	"os"
	"os/user"
)

// Identity names who ran a command and where, for audit entries.
type Identity struct {
	User string
	Host string
}

// CurrentIdentity looks up the local user and hostname. A lookup that
// fails leaves its field empty; callers only record what is known.
func CurrentIdentity() Identity {
	var id Identity
	if u, err := user.Current(); err == nil {
		id.User = u.Username
	}
	if host, err := os.Hostname(); err == nil {
		id.Host = host
	}
	return id
}
