package util

func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}
	clear((*s)[i:])
	*s = (*s)[:i]
}

// DeduplicateBy keeps the first element for every key, preserving order
func DeduplicateBy[T any, K comparable](s *[]T, key func(T) K) {
	seen := make(map[K]struct{}, len(*s))

	InPlaceFilter(s, func(e T) bool {
		k := key(e)
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}
