package main

import "strings"

// splitTrimmed splits a comma-separated flag value, trimming
// whitespace and dropping empty entries. Order is preserved; report
// lines follow it.
func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
