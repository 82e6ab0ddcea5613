package repositories

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/studentdesk/student-api/internal/pkg/normalize"
)

// StudentFilter holds the optional student search criteria. A nil or blank
// field does not restrict the result.
type StudentFilter struct {
	Name   *string
	Course *string
	Age    *int
	Email  *string
}

// Specification is a composable predicate over students. Column names refer
// to the students table aliased as s and the joined courses table as c.
type Specification = squirrel.Sqlizer

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsIgnoreCase(column, value string) Specification {
	return squirrel.ILike{column: "%" + likeEscaper.Replace(value) + "%"}
}

// NameContains matches students whose name contains name, ignoring case.
func NameContains(name string) Specification {
	return containsIgnoreCase("s.name", name)
}

// CourseNameContains matches students whose course name contains course,
// ignoring case. Students without a course never match.
func CourseNameContains(course string) Specification {
	return containsIgnoreCase("c.name", course)
}

// AgeEquals matches students of exactly age.
func AgeEquals(age int) Specification {
	return squirrel.Eq{"s.age": age}
}

// EmailEquals matches the email exactly, ignoring case.
func EmailEquals(email string) Specification {
	return squirrel.Expr("LOWER(s.email) = ?", normalize.EmailKey(email))
}

// Specification AND-combines one predicate per present field. An empty
// result matches every student.
func (f StudentFilter) Specification() squirrel.And {
	var spec squirrel.And
	if name := normalize.Optional(f.Name); name != nil {
		spec = append(spec, NameContains(*name))
	}
	if course := normalize.Optional(f.Course); course != nil {
		spec = append(spec, CourseNameContains(*course))
	}
	if f.Age != nil {
		spec = append(spec, AgeEquals(*f.Age))
	}
	if email := normalize.Optional(f.Email); email != nil {
		spec = append(spec, EmailEquals(*email))
	}
	return spec
}

// IsEmpty reports whether the filter restricts nothing.
func (f StudentFilter) IsEmpty() bool {
	return len(f.Specification()) == 0
}

// applySpecification adds the filter's WHERE clause when there is one.
func applySpecification(q squirrel.SelectBuilder, f StudentFilter) squirrel.SelectBuilder {
	if spec := f.Specification(); len(spec) > 0 {
		return q.Where(spec)
	}
	return q
}
