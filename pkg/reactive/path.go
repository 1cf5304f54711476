package reactive

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParsePath compiles a dot-delimited watch path ("user.address.city")
// into a getter resolved against the watcher's context object. Paths may
// contain letters, digits, '_', '$' and '.'; anything else is rejected so
// the caller can fall back to a no-op getter with a warning.
func ParsePath(path string) (func(ctx any) any, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '.' {
			continue
		}
		return nil, fmt.Errorf("invalid character %q", r)
	}

	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("empty path segment")
		}
	}

	return func(ctx any) any {
		cur := ctx
		for _, seg := range segments {
			if cur == nil {
				return nil
			}
			switch c := cur.(type) {
			case *Object:
				cur = c.Get(seg)
			case *Array:
				i, err := strconv.Atoi(seg)
				if err != nil {
					return nil
				}
				cur = c.Get(i)
			case map[string]any:
				cur = c[seg]
			default:
				return nil
			}
		}
		return cur
	}, nil
}
