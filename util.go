package jsondb

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// equalTree compares two encoded value trees.
func equalTree(a, b any) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case Object:
		b, ok := b.(Object)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Name != b[i].Name || !equalTree(a[i].Value, b[i].Value) {
				return false
			}
		}
		return true
	case []any:
		b, ok := b.([]any)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !equalTree(a[i], b[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		b, ok := b.(map[string]any)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !equalTree(av, bv) {
				return false
			}
		}
		return true
	default:
		return any(a) == b
	}
}
