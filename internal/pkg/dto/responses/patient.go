package responses

import "caresync-service/internal/pkg/fhir_dto"

type PatientRecordResponse struct {
	LocalID         string                  `json:"local_id"`
	ServerID        string                  `json:"server_id,omitempty"`
	GivenName       string                  `json:"given_name"`
	FamilyName      string                  `json:"family_name"`
	BirthDate       string                  `json:"birth_date"`
	Gender          string                  `json:"gender"`
	Telecom         []fhir_dto.ContactPoint `json:"telecom,omitempty"`
	PhotoObjectName string                  `json:"photo_object_name,omitempty"`
	SyncState       string                  `json:"sync_state"`
	CanSave         bool                    `json:"can_save"`
	CanUpload       bool                    `json:"can_upload"`
	CanDownload     bool                    `json:"can_download"`
}

type PatientSearchResponse struct {
	Total    int                `json:"total"`
	Patients []fhir_dto.Patient `json:"patients"`
}

type PatientPhotoResponse struct {
	LocalID    string `json:"local_id"`
	ObjectName string `json:"object_name"`
	Url        string `json:"url,omitempty"`
}
