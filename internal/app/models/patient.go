package models

import (
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/fhir_dto"
	"strings"
	"time"
)

// Gender mirrors the FHIR administrative-gender value set.
type Gender string

const (
	GenderMale    Gender = constvars.FhirGenderMale
	GenderFemale  Gender = constvars.FhirGenderFemale
	GenderOther   Gender = constvars.FhirGenderOther
	GenderUnknown Gender = constvars.FhirGenderUnknown
)

// ParseGender decodes a wire value. Anything outside the closed set falls
// back to GenderUnknown silently, matching how lenient FHIR clients treat
// the field.
func ParseGender(wire string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(wire))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	default:
		return GenderUnknown
	}
}

// SyncState is the explicit lifecycle tag of a patient record. It replaces
// inferring state from nullable-field combinations.
type SyncState string

const (
	// SyncStateNew: draft exists in memory only, never saved.
	SyncStateNew SyncState = "new"
	// SyncStateSavedLocal: persisted locally, never accepted by the server.
	SyncStateSavedLocal SyncState = "saved_local"
	// SyncStateSynced: the server has accepted this record at least once.
	SyncStateSynced SyncState = "synced"
)

// PatientDraft is the editable working copy of a patient. Every field is
// independently settable so callers can represent "not yet filled in".
type PatientDraft struct {
	GivenName       *string
	FamilyName      *string
	BirthDate       *string
	Gender          *Gender
	Telecom         []fhir_dto.ContactPoint
	PhotoObjectName *string
}

// PatientRecord is the durable local cache row for a patient. LocalID is
// assigned at first save and never changes; ServerID is empty until the FHIR
// server accepts the record for the first time.
type PatientRecord struct {
	LocalID         string                  `bson:"_id" json:"local_id"`
	ServerID        string                  `bson:"serverId,omitempty" json:"server_id,omitempty"`
	GivenName       string                  `bson:"givenName" json:"given_name"`
	FamilyName      string                  `bson:"familyName" json:"family_name"`
	BirthDate       string                  `bson:"birthDate" json:"birth_date"`
	Gender          Gender                  `bson:"gender" json:"gender"`
	Telecom         []fhir_dto.ContactPoint `bson:"telecom,omitempty" json:"telecom,omitempty"`
	PhotoObjectName string                  `bson:"photoObjectName,omitempty" json:"photo_object_name,omitempty"`
	SyncState       SyncState               `bson:"syncState" json:"sync_state"`
	CreatedAt       time.Time               `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time               `bson:"updatedAt" json:"updated_at"`
}

// DraftFromResource populates a draft from a canonical server resource.
func DraftFromResource(resource *fhir_dto.Patient) PatientDraft {
	draft := PatientDraft{}
	if len(resource.Name) > 0 {
		family := resource.Name[0].Family
		draft.FamilyName = &family
		if len(resource.Name[0].Given) > 0 {
			given := resource.Name[0].Given[0]
			draft.GivenName = &given
		}
	}
	if resource.BirthDate != "" {
		birthDate := resource.BirthDate
		draft.BirthDate = &birthDate
	}
	if resource.Gender != "" {
		gender := ParseGender(resource.Gender)
		draft.Gender = &gender
	}
	draft.Telecom = append([]fhir_dto.ContactPoint(nil), resource.Telecom...)
	if len(resource.Photo) > 0 && resource.Photo[0].Title != "" {
		objectName := resource.Photo[0].Title
		draft.PhotoObjectName = &objectName
	}
	return draft
}

// DraftFromRecord rebuilds the editable copy from a stored record.
func DraftFromRecord(record *PatientRecord) PatientDraft {
	draft := PatientDraft{}
	if record.GivenName != "" {
		given := record.GivenName
		draft.GivenName = &given
	}
	if record.FamilyName != "" {
		family := record.FamilyName
		draft.FamilyName = &family
	}
	if record.BirthDate != "" {
		birthDate := record.BirthDate
		draft.BirthDate = &birthDate
	}
	if record.Gender != "" {
		gender := record.Gender
		draft.Gender = &gender
	}
	draft.Telecom = append([]fhir_dto.ContactPoint(nil), record.Telecom...)
	if record.PhotoObjectName != "" {
		objectName := record.PhotoObjectName
		draft.PhotoObjectName = &objectName
	}
	return draft
}

// ApplyDraft overwrites the record's editable fields in place. The local key
// and server id are untouched.
func (r *PatientRecord) ApplyDraft(draft PatientDraft) {
	r.GivenName = stringOrEmpty(draft.GivenName)
	r.FamilyName = stringOrEmpty(draft.FamilyName)
	r.BirthDate = stringOrEmpty(draft.BirthDate)
	if draft.Gender != nil {
		r.Gender = *draft.Gender
	} else {
		r.Gender = ""
	}
	r.Telecom = append([]fhir_dto.ContactPoint(nil), draft.Telecom...)
	r.PhotoObjectName = stringOrEmpty(draft.PhotoObjectName)
	r.UpdatedAt = time.Now()
}

// ApplyResource overwrites every editable field and the server id with the
// server's canonical representation, so no stale field survives a sync.
func (r *PatientRecord) ApplyResource(resource *fhir_dto.Patient) {
	r.ApplyDraft(DraftFromResource(resource))
	r.ServerID = resource.ID
	r.SyncState = SyncStateSynced
}

// ToResource builds the FHIR wire form of the record. The server id is only
// included when present, so create requests carry no client-assigned id.
func (r *PatientRecord) ToResource() *fhir_dto.Patient {
	resource := &fhir_dto.Patient{
		ID:           r.ServerID,
		ResourceType: constvars.ResourcePatient,
		Active:       true,
		Gender:       string(r.Gender),
		BirthDate:    r.BirthDate,
		Telecom:      append([]fhir_dto.ContactPoint(nil), r.Telecom...),
	}
	if r.GivenName != "" || r.FamilyName != "" {
		name := fhir_dto.HumanName{Family: r.FamilyName}
		if r.GivenName != "" {
			name.Given = []string{r.GivenName}
		}
		resource.Name = []fhir_dto.HumanName{name}
	}
	if r.PhotoObjectName != "" {
		resource.Photo = []fhir_dto.Attachment{{Title: r.PhotoObjectName}}
	}
	return resource
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
