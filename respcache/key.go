package respcache

import (
	"net/http"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// NormalizeVary canonicalizes, dedupes and sorts header names so that the
// order in configuration does not change request identity.
func NormalizeVary(headers []string) []string {
	names := lo.Uniq(lo.FilterMap(headers, func(h string, _ int) (string, bool) {
		h = strings.TrimSpace(h)
		return http.CanonicalHeaderKey(h), h != ""
	}))
	sort.Strings(names)
	return names
}

// Key returns the request identity used as the cache key: method, host and
// request URI, followed by the values of the vary headers. vary must already
// be normalized.
func Key(r *http.Request, vary []string) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.Host)
	b.WriteString(r.URL.RequestURI())
	for _, name := range vary {
		b.WriteByte('\n')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(r.Header.Values(name), ","))
	}
	return b.String()
}
