package models

import (
	"caresync-service/internal/pkg/fhir_dto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGender(t *testing.T) {
	cases := map[string]Gender{
		"male":    GenderMale,
		"FEMALE":  GenderFemale,
		" other ": GenderOther,
		"unknown": GenderUnknown,
	}
	for wire, want := range cases {
		assert.Equal(t, want, ParseGender(wire))
	}

	// Anything outside the closed set degrades to unknown instead of
	// failing. Silent by design, which is exactly why it gets a test.
	assert.Equal(t, GenderUnknown, ParseGender("nonbinary-xyz"))
	assert.Equal(t, GenderUnknown, ParseGender(""))
	assert.Equal(t, GenderUnknown, ParseGender("42"))
}

func TestPatientRecord_ToResource(t *testing.T) {
	t.Run("no server id means no client-assigned id on the wire", func(t *testing.T) {
		record := &PatientRecord{
			LocalID:    "local-1",
			GivenName:  "Jane",
			FamilyName: "Doe",
			BirthDate:  "1990-01-01",
			Gender:     GenderFemale,
		}
		resource := record.ToResource()
		assert.Empty(t, resource.ID)
		assert.Equal(t, "Patient", resource.ResourceType)
		require.Len(t, resource.Name, 1)
		assert.Equal(t, "Doe", resource.Name[0].Family)
		assert.Equal(t, []string{"Jane"}, resource.Name[0].Given)
	})

	t.Run("server id travels on updates", func(t *testing.T) {
		record := &PatientRecord{LocalID: "local-1", ServerID: "42", GivenName: "Jane", FamilyName: "Doe"}
		assert.Equal(t, "42", record.ToResource().ID)
	})

	t.Run("photo object name rides in the attachment title", func(t *testing.T) {
		record := &PatientRecord{LocalID: "local-1", PhotoObjectName: "photo_local-1.jpg"}
		resource := record.ToResource()
		require.Len(t, resource.Photo, 1)
		assert.Equal(t, "photo_local-1.jpg", resource.Photo[0].Title)
	})
}

func TestPatientRecord_ApplyResource(t *testing.T) {
	record := &PatientRecord{
		LocalID:    "local-1",
		GivenName:  "Jane",
		FamilyName: "Doe",
		Telecom:    []fhir_dto.ContactPoint{{System: "phone", Value: "555-0100"}},
		SyncState:  SyncStateSavedLocal,
	}

	record.ApplyResource(&fhir_dto.Patient{
		ID:           "42",
		ResourceType: "Patient",
		Name:         []fhir_dto.HumanName{{Family: "Smith", Given: []string{"Janet"}}},
		Gender:       "female",
		BirthDate:    "1991-02-02",
	})

	assert.Equal(t, "local-1", record.LocalID, "local key survives sync")
	assert.Equal(t, "42", record.ServerID)
	assert.Equal(t, SyncStateSynced, record.SyncState)
	assert.Equal(t, "Janet", record.GivenName)
	assert.Equal(t, "Smith", record.FamilyName)
	assert.Empty(t, record.Telecom, "fields absent on the canonical copy are cleared")
}

func TestDraftFromResource(t *testing.T) {
	resource := &fhir_dto.Patient{
		ID:           "42",
		ResourceType: "Patient",
		Name:         []fhir_dto.HumanName{{Family: "Doe", Given: []string{"Jane"}}},
		Gender:       "something-unrecognized",
		BirthDate:    "1990-01-01",
	}
	draft := DraftFromResource(resource)

	require.NotNil(t, draft.GivenName)
	assert.Equal(t, "Jane", *draft.GivenName)
	require.NotNil(t, draft.FamilyName)
	assert.Equal(t, "Doe", *draft.FamilyName)
	require.NotNil(t, draft.Gender)
	assert.Equal(t, GenderUnknown, *draft.Gender)
}
