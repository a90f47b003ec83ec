package ratelimit

import "strings"

// Key builds a limiter key for an endpoint class and client identity.
func Key(kind, client string) string {
	kind = strings.TrimSpace(kind)
	client = strings.ToLower(strings.TrimSpace(client))
	if kind == "" || client == "" {
		return ""
	}
	return kind + ":" + client
}
