package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addr struct {
	City string `json:"city" validate:"required,max=5"`
}

type signup struct {
	Email   string `json:"email" validate:"required,email"`
	Method  string `json:"payment_method" validate:"omitempty,oneof=cod card"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Billing *addr  `json:"billing_address" validate:"omitempty"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	errs := Struct(signup{Email: "nope", Method: "cash", Phone: "x", Billing: &addr{City: "Chittagong"}})
	require.NotNil(t, errs)
	assert.Equal(t, []string{"Enter a valid email address."}, errs["email"])
	assert.Equal(t, []string{`"cash" is not a valid choice.`}, errs["payment_method"])
	assert.Equal(t, []string{"Enter a valid phone number."}, errs["phone"])
	assert.Contains(t, errs, "billing_address.city")

	assert.Nil(t, Struct(signup{Email: "a@b.co", Phone: "+880 1711-000000"}))
}

func TestRequired(t *testing.T) {
	errs := Struct(signup{})
	assert.Equal(t, []string{"This field is required."}, errs["email"])
}

func TestLimitClamp(t *testing.T) {
	assert.Equal(t, 10, Limit("", 10, 50))
	assert.Equal(t, 10, Limit("abc", 10, 50))
	assert.Equal(t, 1, Limit("0", 10, 50))
	assert.Equal(t, 1, Limit("-4", 10, 50))
	assert.Equal(t, 50, Limit("500", 10, 50))
	assert.Equal(t, 7, Limit(" 7 ", 10, 50))
}

func TestPassword(t *testing.T) {
	assert.Empty(t, Password("Passw0rd!"))
	assert.Len(t, Password("short"), 4)
	assert.Contains(t, Password("alllowercase1!"), "Password must contain both upper and lower case letters.")
}

func TestEmailAndQ(t *testing.T) {
	e, ok := Email("  Alice@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", e)
	_, ok = Email("not-an-email")
	assert.False(t, ok)

	q, ok := Q("  mountain bike ")
	assert.True(t, ok)
	assert.Equal(t, "mountain bike", q)
	_, ok = Q("<script>")
	assert.False(t, ok)
	_, ok = Q("   ")
	assert.False(t, ok)
}
