package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

func TestRefUnmarshal(t *testing.T) {
	id := uuid.New()

	t.Run("normalizes type", func(t *testing.T) {
		var r Ref
		require.NoError(t, json.Unmarshal([]byte(`{"type":" Organization ","id":"`+id.String()+`"}`), &r))
		assert.Equal(t, KindOrganization, r.Type)
		assert.Equal(t, id, r.ID)
		assert.NoError(t, r.Validate())
	})

	t.Run("unknown type fails validation", func(t *testing.T) {
		var r Ref
		require.NoError(t, json.Unmarshal([]byte(`{"type":"robot","id":"`+id.String()+`"}`), &r))
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))
	})

	t.Run("bad id", func(t *testing.T) {
		var r Ref
		err := json.Unmarshal([]byte(`{"type":"individual","id":"nope"}`), &r)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestValidateNationalID(t *testing.T) {
	assert.NoError(t, ValidateNationalID("12345678909"))
	assert.Error(t, ValidateNationalID("1234567890"))
	assert.Error(t, ValidateNationalID("00000000000"))
}

func TestIndividualValidate(t *testing.T) {
	today := domain.NewDate(2024, time.March, 1)
	ind := &Individual{
		FullName:   "Maria Silva",
		NationalID: "12345678909",
		BirthDate:  today,
		Status:     StatusActive,
	}
	assert.NoError(t, ind.Validate(today), "born today is allowed")

	ind.BirthDate = domain.NewDate(2024, time.March, 2)
	assert.True(t, dErrors.HasCode(ind.Validate(today), dErrors.CodeValidation))
}

func TestDeactivate(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	org := &Organization{Status: StatusActive}
	require.NoError(t, org.CanDeactivate())
	org.Deactivate(now)
	assert.Equal(t, StatusInactive, org.Status)
	assert.Equal(t, now, org.UpdatedAt)
	assert.True(t, dErrors.HasCode(org.CanDeactivate(), dErrors.CodeConflict))
}

func TestAddress(t *testing.T) {
	a := Address{State: " sp ", PostalCode: "01310-100"}
	a.Normalize()
	assert.Equal(t, "SP", a.State)
	assert.Equal(t, "01310-100", a.FormattedPostalCode())
	assert.NoError(t, a.Validate())

	assert.Error(t, Address{PostalCode: "123"}.Validate())
	assert.NoError(t, Address{}.Validate())
}

func TestListFilterMatchesName(t *testing.T) {
	f := ListFilter{Name: "acme"}
	assert.True(t, f.MatchesName("ACME Ltda"))
	assert.True(t, f.MatchesName("Other", "Acme"))
	assert.False(t, f.MatchesName("Beta"))
	assert.True(t, ListFilter{}.MatchesName("anything"))
}
