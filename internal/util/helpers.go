package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Timestamped prefixes a file name with the current time so repeated
// uploads of the same file do not collide.
func Timestamped(name string) string {
	return TimestampedAt(time.Now(), name)
}

func TimestampedAt(t time.Time, name string) string {
	ts := t.Format("20060102_150405.000000")
	return fmt.Sprintf("%s__%s", strings.ReplaceAll(ts, ".", "_"), filepath.Base(name))
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n])
}
