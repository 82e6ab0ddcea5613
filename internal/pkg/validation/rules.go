package validation

import (
	"regexp"
)

// Validation rule patterns
var (
	// NamePattern allows letters and whitespace only
	NamePattern = `^[a-zA-Z\s]+$`

	// EmailPattern is the accepted shape of a student email
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z.-]+\.[a-zA-Z]{2,6}$`

	// UsernamePattern allows letters, digits, dot, dash and underscore
	UsernamePattern = `^[a-zA-Z0-9._-]+$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Name     *regexp.Regexp
	Email    *regexp.Regexp
	Username *regexp.Regexp
}{
	Name:     regexp.MustCompile(NamePattern),
	Email:    regexp.MustCompile(EmailPattern),
	Username: regexp.MustCompile(UsernamePattern),
}

// Tag names registered on the validator
const (
	TagPersonName   = "personname"
	TagStudentEmail = "studentemail"
	TagUsername     = "username"
)
