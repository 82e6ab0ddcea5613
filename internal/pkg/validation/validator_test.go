package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentdesk/student-api/internal/pkg/apperrors"
)

type studentInput struct {
	Name       string `json:"name" validate:"required,personname"`
	Email      string `json:"email" validate:"required,email,studentemail"`
	Age        int    `json:"age" validate:"gte=1"`
	CourseName string `json:"courseName" validate:"required"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		input      studentInput
		wantFields []string
	}{
		{
			name:  "valid",
			input: studentInput{Name: "Ada Lovelace", Email: "ada@example.com", Age: 20, CourseName: "CS"},
		},
		{
			name:       "missing everything",
			input:      studentInput{},
			wantFields: []string{"name", "email", "age", "courseName"},
		},
		{
			name:       "digits in name",
			input:      studentInput{Name: "R2D2", Email: "r2@example.com", Age: 3, CourseName: "CS"},
			wantFields: []string{"name"},
		},
		{
			name:       "email with digits in domain",
			input:      studentInput{Name: "Bob", Email: "bob@host1.com", Age: 30, CourseName: "CS"},
			wantFields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

			details := apperrors.Details(err)
			for _, f := range tt.wantFields {
				assert.Contains(t, details, f)
			}
			assert.Len(t, details, len(tt.wantFields))
		})
	}
}

func TestValidator_MessageUsesJSONName(t *testing.T) {
	err := New().Struct(studentInput{Name: "Ada", Email: "ada@example.com", Age: 0, CourseName: "CS"})
	require.Error(t, err)
	assert.Equal(t, "age must be greater than or equal to 1", apperrors.Details(err)["age"])
}
