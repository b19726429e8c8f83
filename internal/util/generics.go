package util

// Contains checks if a slice contains a specific element
func Contains[T comparable](slice []T, item T) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Filter returns a new slice containing only elements that match the predicate
func Filter[T any](slice []T, predicate func(T) bool) []T {
	var result []T
	for _, item := range slice {
		if predicate(item) {
			result = append(result, item)
		}
	}
	return result
}

// FindFirst returns the first element matching the predicate, or zero value if none found
func FindFirst[T any](slice []T, predicate func(T) bool) (T, bool) {
	for _, item := range slice {
		if predicate(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// GroupOrdered groups slice elements by key. Keys are returned in order of
// first appearance and each group keeps the input order of its elements.
func GroupOrdered[T any, K comparable](slice []T, keyFn func(T) K) ([]K, map[K][]T) {
	var keys []K
	groups := make(map[K][]T)
	for _, item := range slice {
		key := keyFn(item)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}
	return keys, groups
}
