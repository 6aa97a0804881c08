package bucketgate

import (
	"strings"
	"unicode/utf8"
)

// KeyFromPath derives an object key from a request path by removing the
// single leading separator. Everything after it is kept verbatim, so callers
// pass the escaped path: "/photo%20one.png" is the key "photo%20one.png".
func KeyFromPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// IsValidKey reports whether a key can be represented as a relative file
// path by the metadata-backed store. It checks that the key:
//   - is not empty or "."
//   - does not start or end with "/"
//   - does not contain ".." or "//"
//   - does not contain "." segments
//   - does not contain a backslash
//   - is valid UTF-8 without control characters
func IsValidKey(k string) bool {
	if k == "" || k == "." {
		return false
	}

	if k[0] == '/' || strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "..") || strings.Contains(k, "//") {
		return false
	}

	if strings.HasPrefix(k, "./") || strings.Contains(k, "/./") || strings.HasSuffix(k, "/.") {
		return false
	}

	if strings.ContainsRune(k, '\\') {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
