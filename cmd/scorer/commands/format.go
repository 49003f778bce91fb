package commands

import (
	"fmt"
	"io"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	heavyRule = "═══════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────"
)

// printHeader prints a formatted section header
func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, heavyRule)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, lightRule)
}

// printField prints one aligned "key : value" line
func printField(w io.Writer, key string, value interface{}) {
	fmt.Fprintf(w, "  %-14s: %v\n", key, value)
}

// printFooter closes a section
func printFooter(w io.Writer) {
	fmt.Fprintln(w, heavyRule)
}

// maskPassword hides the password part of a connection URL
func maskPassword(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":****@" + host
}
