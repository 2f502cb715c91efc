package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(v string) *string { return &v }

func TestCleanString(t *testing.T) {
	assert.Nil(t, CleanString(nil))
	assert.Nil(t, CleanString(str("   \t\n")))
	require.NotNil(t, CleanString(str("  Jane Doe ")))
	assert.Equal(t, "Jane Doe", *CleanString(str("  Jane Doe ")))
}

func TestPayloadSanitizeIsIdempotent(t *testing.T) {
	payload := WizardPayload{
		Student:           StudentStep{FullName: str(" Ana Souza "), BirthDate: str("2015-03-02"), ClassSectionID: str("  ")},
		PrimaryGuardian:   GuardianStep{FullName: str("Jane Doe"), Phone: str(" 11999990000 "), Email: str("")},
		SecondaryGuardian: GuardianStep{FullName: str("   ")},
		FinancialResponsible: FinancialResponsibleStep{
			FullName: str("Jane Doe"), City: str(" Springfield "), Complement: str(" "),
		},
		Signature: str(""),
	}

	payload.Sanitize()
	once := payload
	payload.Sanitize()

	assert.Equal(t, once, payload)
	assert.Equal(t, "Ana Souza", *payload.Student.FullName)
	assert.Nil(t, payload.Student.ClassSectionID)
	assert.Equal(t, "11999990000", *payload.PrimaryGuardian.Phone)
	assert.Nil(t, payload.PrimaryGuardian.Email)
	assert.Nil(t, payload.SecondaryGuardian.FullName)
	assert.Equal(t, "Springfield", *payload.FinancialResponsible.City)
	assert.Nil(t, payload.FinancialResponsible.Complement)
	assert.Nil(t, payload.Signature)
}

func TestGuardianIsBlank(t *testing.T) {
	assert.True(t, GuardianStep{}.IsBlank())
	assert.True(t, GuardianStep{FullName: str("  "), Email: str("")}.IsBlank())
	assert.False(t, GuardianStep{Occupation: str("nurse")}.IsBlank())
}

func TestClaimsIdentity(t *testing.T) {
	var nilClaims *JWTClaims
	assert.Nil(t, nilClaims.Identity())

	id := (&JWTClaims{UserID: "u1", TenantID: "t1", Role: RoleGuardian}).Identity()
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, RoleGuardian, id.Role)
}
