package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,is-user-role"`
	Phone    string `json:"phone" validate:"omitempty,sn-phone"`
	JobType  string `json:"type" validate:"omitempty,is-job-type"`
	Status   string `json:"status" validate:"omitempty,is-item-status"`
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&sampleRequest{Email: "not-an-email", Password: "123"})
	require.Error(t, err)

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
	assert.Equal(t, "Must be at least 6 items/characters long", vErr.Errors["password"])
	assert.Contains(t, vErr.Error(), "field 'email'")
}

func TestValidate_CustomRules(t *testing.T) {
	v := New()
	base := sampleRequest{Email: "awa@example.sn", Password: "secret1"}

	tests := []struct {
		name    string
		mutate  func(r *sampleRequest)
		field   string
		wantErr bool
	}{
		{"valid role", func(r *sampleRequest) { r.Role = "recruteur" }, "role", false},
		{"unknown role", func(r *sampleRequest) { r.Role = "model" }, "role", true},
		{"mobile phone", func(r *sampleRequest) { r.Phone = "77 123 45 67" }, "phone", false},
		{"prefixed phone", func(r *sampleRequest) { r.Phone = "+221781234567" }, "phone", false},
		{"landline phone", func(r *sampleRequest) { r.Phone = "338210000" }, "phone", false},
		{"foreign phone", func(r *sampleRequest) { r.Phone = "+33612345678" }, "phone", true},
		{"job type", func(r *sampleRequest) { r.JobType = "internship" }, "type", false},
		{"bad job type", func(r *sampleRequest) { r.JobType = "cdi" }, "type", true},
		{"item status", func(r *sampleRequest) { r.Status = "suspended" }, "status", false},
		{"bad item status", func(r *sampleRequest) { r.Status = "deleted" }, "status", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			err := v.Validate(&req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErr, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.Contains(t, vErr.Errors, tt.field)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "771234567", NormalizePhone(" 77-123.45 67 "))
}
