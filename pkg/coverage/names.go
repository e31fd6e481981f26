package coverage

import (
	"crypto/md5"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

var driveRe = regexp.MustCompile(`^[A-Za-z]:/`)

// NormalizeName turns a recorded file path into the key used for lookups:
// backslashes become slashes, leading "./" markers are dropped and the path
// is cleaned. It never modifies its input.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	p := strings.ReplaceAll(name, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return path.Clean(p)
}

// MangleName derives a flat output file name from a source path: the drive
// marker is stripped, dots become "_" and separators become "-". Paths that
// already contain "-" or "_" could collide with another path after that
// substitution, so they get a short hash of the clean path appended.
func MangleName(name, ext string) string {
	clean := driveRe.ReplaceAllString(NormalizeName(name), "")
	m := strings.ReplaceAll(clean, ".", "_")
	m = strings.ReplaceAll(m, "/", "-")
	if strings.ContainsAny(clean, "-_") {
		sum := md5.Sum([]byte(clean))
		m += "-" + hex.EncodeToString(sum[:])[:8]
	}
	return m + ext
}
