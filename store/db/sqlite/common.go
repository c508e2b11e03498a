package sqlite

import "strings"

// placeholders returns n SQLite placeholders joined by commas.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}
