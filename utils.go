package mlsclient

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

func generateID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func eachSortedKeyValue[V any](m map[string]V, fn func(key string, value V)) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		fn(k, m[k])
	}
}

// Bool2Text maps the service's boolean convention to a label: exactly "True"
// is "Yes", anything else (including "true") is "No".
func Bool2Text(value string) string {
	if value == "True" {
		return "Yes"
	}

	return "No"
}
