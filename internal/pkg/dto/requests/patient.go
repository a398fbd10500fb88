package requests

import "caresync-service/internal/pkg/fhir_dto"

// UpsertPatientDraft carries the editable draft fields. Pointer fields
// distinguish "leave untouched" from "set to this value" on updates.
type UpsertPatientDraft struct {
	GivenName  *string               `json:"given_name,omitempty" validate:"omitempty,notblank,max=128"`
	FamilyName *string               `json:"family_name,omitempty" validate:"omitempty,notblank,max=128"`
	BirthDate  *string               `json:"birth_date,omitempty" validate:"omitempty,fhirdate"`
	Gender     *string               `json:"gender,omitempty" validate:"omitempty,oneof=male female other unknown"`
	Telecom    []ContactPointRequest `json:"telecom,omitempty" validate:"omitempty,dive"`
}

type ContactPointRequest struct {
	System string `json:"system" validate:"required,oneof=phone email url sms other"`
	Value  string `json:"value" validate:"required,notblank"`
	Use    string `json:"use,omitempty" validate:"omitempty,oneof=home work mobile temp old"`
}

func (c ContactPointRequest) ToContactPoint() fhir_dto.ContactPoint {
	return fhir_dto.ContactPoint{
		System: c.System,
		Value:  c.Value,
		Use:    c.Use,
	}
}
