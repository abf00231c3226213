// Package validator decides whether a decoded JSON payload plausibly
// represents catalog data from a video provider API.
package validator

// Success sentinels for the "code" field used by this class of APIs.
const (
	codeOK       = 1
	codeOKLegacy = 200
)

// fieldAliases maps each required catalog field to its accepted aliases.
// Some providers rename the canonical vod_* fields.
var fieldAliases = map[string][]string{
	"vod_id":   {"id", "video_id"},
	"vod_name": {"name", "title"},
}

// Valid reports whether the payload looks like usable catalog data.
//
// This is a heuristic, not a schema check. It exists to filter obviously
// dead endpoints, so it deliberately leans toward accepting: a response we
// cannot positively rule out is treated as valid.
func Valid(payload any) bool {
	obj, ok := payload.(map[string]any)
	if !ok {
		return false
	}

	if code, present := obj["code"]; present {
		if !codeIsSuccess(code) {
			return false
		}
	}

	if list, present := obj["list"]; present {
		return listIsPlausible(list)
	}

	if data, present := obj["data"]; present {
		switch data.(type) {
		case []any, map[string]any:
			return true
		default:
			return false
		}
	}

	// No list, data, or failing code field: accept any non-empty object.
	return len(obj) > 0
}

// codeIsSuccess reports whether a "code" field value equals a success sentinel.
func codeIsSuccess(code any) bool {
	n, ok := code.(float64)
	if !ok {
		return false
	}
	return n == codeOK || n == codeOKLegacy
}

// listIsPlausible checks that a "list" value is an array whose first element,
// if any, carries identifying catalog fields.
func listIsPlausible(list any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	if len(items) == 0 {
		return true
	}

	first, ok := items[0].(map[string]any)
	if !ok {
		return false
	}

	for field, aliases := range fieldAliases {
		if !hasFieldOrAlias(first, field, aliases) {
			return false
		}
	}
	return true
}

// hasFieldOrAlias reports whether the object carries the canonical field
// name or any of its aliases.
func hasFieldOrAlias(obj map[string]any, field string, aliases []string) bool {
	if _, ok := obj[field]; ok {
		return true
	}
	for _, alias := range aliases {
		if _, ok := obj[alias]; ok {
			return true
		}
	}
	return false
}
