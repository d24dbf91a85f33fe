package util

import "unicode/utf8"

// RemoveDuplicateStrings drops empty strings, repeats and anything in ignoreList
func RemoveDuplicateStrings(values []string, ignoreList []string) []string {
	ignored := make(map[string]struct{}, len(ignoreList))
	for _, value := range ignoreList {
		ignored[value] = struct{}{}
	}

	list := make([]string, 0, len(values))
	for _, value := range values {
		if _, skip := ignored[value]; !skip && value != "" {
			list = append(list, value)
		}
	}
	DeduplicateBy(&list, func(value string) string { return value })

	return list
}

// TrimString cuts s to at most length bytes without splitting a rune
func TrimString(s string, length int) string {
	if len(s) <= length {
		return s
	}

	for length > 0 && !utf8.RuneStart(s[length]) {
		length--
	}

	return s[:length]
}
