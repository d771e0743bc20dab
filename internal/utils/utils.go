package utils

import "strings"

// ToStringSlice converts a decoded JSON claim into a string slice.
// Arrays keep their string members, a single string is split on whitespace.
func ToStringSlice(v any) []string {
	stringSlice := make([]string, 0)
	switch values := v.(type) {
	case []any:
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				stringSlice = append(stringSlice, s)
			}
		}
	case []string:
		stringSlice = append(stringSlice, values...)
	case string:
		stringSlice = append(stringSlice, strings.Fields(values)...)
	}
	return stringSlice
}

// SplitList splits a comma separated list, trimming blanks
func SplitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}
