package normalize

import "strings"

// Email trims surrounding whitespace. Case is kept as entered.
func Email(e string) string {
	return strings.TrimSpace(e)
}

// EmailKey is the case-insensitive form used to compare addresses.
func EmailKey(e string) string {
	return strings.ToLower(Email(e))
}

// Name trims surrounding whitespace.
func Name(n string) string {
	return strings.TrimSpace(n)
}

// Optional returns nil for a nil or blank value, otherwise a pointer to the
// trimmed value.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
