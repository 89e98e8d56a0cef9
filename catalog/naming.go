package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntityName derives an entity class name from a table name:
// "employee_salaries" becomes "EmployeeSalary".
func EntityName(table string) string {
	parts := strings.FieldsFunc(table, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(parts) == 0 {
		return ""
	}
	parts[len(parts)-1] = Singular(parts[len(parts)-1])

	caser := cases.Title(language.English)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(caser.String(p))
	}
	return b.String()
}

// TableName derives a table name from an entity type name:
// "EmployeeSalary" becomes "employee_salaries".
func TableName(entity string) string {
	words := splitWords(entity)
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = Plural(words[len(words)-1])
	return strings.ToLower(strings.Join(words, "_"))
}

// SnakeCase converts a Go identifier to snake case: "CreatedAt" becomes
// "created_at".
func SnakeCase(name string) string {
	return strings.ToLower(strings.Join(splitWords(name), "_"))
}

// splitWords splits a camel-case identifier at case changes, keeping
// acronyms together.
func splitWords(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

var irregular = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
}

// Singular returns the singular of an English noun for the common inflections.
func Singular(word string) string {
	lower := strings.ToLower(word)
	for single, plural := range irregular {
		if lower == plural {
			return single
		}
	}
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"):
		return word
	case strings.HasSuffix(lower, "s"):
		return word[:len(word)-1]
	}
	return word
}

// Plural returns the plural of an English noun for the common inflections.
func Plural(word string) string {
	lower := strings.ToLower(word)
	if plural, ok := irregular[lower]; ok {
		return plural
	}
	switch {
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return word + "es"
	}
	return word + "s"
}
