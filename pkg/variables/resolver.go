// Package variables resolves {{var.NAME}} placeholders in outbound text.
//
// Resolution looks in the conversation's variables first, then in the
// well-known contact variables (name, contact, phoneShort). Placeholders
// that resolve to nothing are left verbatim so an author's typo stays visible.
package variables

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Well-known contact variable names.
const (
	ContactName       = "name"
	ContactPhone      = "contact"
	ContactPhoneShort = "phoneShort"
)

// shortPhoneDigits is the number of trailing digits kept by phoneShort.
const shortPhoneDigits = 10

var placeholder = regexp.MustCompile(`\{\{\s*var\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Resolve substitutes every placeholder in template. It is a single pass:
// values that themselves contain placeholders are not expanded again.
func Resolve(template string, vars map[string]string, contact domain.Contact) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if v, ok := Lookup(name, vars, contact); ok {
			return v
		}
		return match
	})
}

// Lookup returns the value a placeholder name resolves to.
func Lookup(name string, vars map[string]string, contact domain.Contact) (string, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	v, ok := ContactVars(contact)[name]
	return v, ok
}

// ContactVars derives the well-known contact variables. Variables whose
// source is empty are omitted.
func ContactVars(c domain.Contact) map[string]string {
	out := make(map[string]string, 3)
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = strings.TrimSpace(c.Phone)
	}
	if name != "" {
		out[ContactName] = name
	}
	if phone := strings.TrimSpace(c.Phone); phone != "" {
		out[ContactPhone] = phone
	}
	if short := ShortPhone(c.Phone); short != "" {
		out[ContactPhoneShort] = short
	}
	return out
}

// ShortPhone keeps the last ten digits of a phone number, dropping the
// country code and any formatting.
func ShortPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) > shortPhoneDigits {
		digits = digits[len(digits)-shortPhoneDigits:]
	}
	return digits
}

// Placeholders lists the distinct variable names referenced by template, in order.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
