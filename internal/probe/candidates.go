package probe

import "net/url"

// queryVariant is one set of query parameters appended to a base URL.
type queryVariant map[string]string

// Candidate URL variants in preference order. A small page of detail data
// is tried first because it exercises the fullest response shape; the bare
// URL goes last as the least informative fallback.
var variants = []queryVariant{
	{"ac": "detail", "pg": "1"},
	{"ac": "list", "pg": "1"},
	{"limit": "10"},
	nil,
}

// Candidates returns the ordered candidate URLs derived from a base URL.
// Existing query parameters are kept; variant parameters override on clash.
func Candidates(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return []string{baseURL}
	}

	out := make([]string, 0, len(variants))
	for _, variant := range variants {
		if variant == nil {
			out = append(out, baseURL)
			continue
		}
		q := u.Query()
		for k, v := range variant {
			q.Set(k, v)
		}
		cu := *u
		cu.RawQuery = q.Encode()
		out = append(out, cu.String())
	}
	return out
}
