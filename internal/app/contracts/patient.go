package contracts

import (
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/dto/requests"
	"caresync-service/internal/pkg/dto/responses"
	"caresync-service/internal/pkg/fhir_dto"
	"context"
)

type PatientUsecase interface {
	CreateDraft(ctx context.Context, request *requests.UpsertPatientDraft) (*responses.PatientRecordResponse, error)
	UpdateDraft(ctx context.Context, localID string, request *requests.UpsertPatientDraft) (*responses.PatientRecordResponse, error)
	GetRecord(ctx context.Context, localID string) (*responses.PatientRecordResponse, error)
	Upload(ctx context.Context, localID string) (*responses.PatientRecordResponse, error)
	Download(ctx context.Context, localID string) (*responses.PatientRecordResponse, error)
	SearchByFamilyName(ctx context.Context, familyName string) (*responses.PatientSearchResponse, error)
	AttachPhoto(ctx context.Context, localID string, data []byte, fileName, contentType string) (*responses.PatientPhotoResponse, error)
}

// PatientRepository is the durable local store for patient records, keyed by
// the local primary key. Records are never deleted by this service.
type PatientRepository interface {
	Upsert(ctx context.Context, record *models.PatientRecord) error
	FindByLocalID(ctx context.Context, localID string) (*models.PatientRecord, error)
	FindByServerID(ctx context.Context, serverID string) (*models.PatientRecord, error)
}

// PatientFhirClient performs the remote operations against the FHIR server.
// It is stateless: request/response translation only, no retries.
type PatientFhirClient interface {
	CreatePatient(ctx context.Context, resource *fhir_dto.Patient) (*fhir_dto.Patient, error)
	UpdatePatient(ctx context.Context, resource *fhir_dto.Patient) (*fhir_dto.Patient, error)
	FindPatientByID(ctx context.Context, patientID string) (*fhir_dto.Patient, error)
	FindPatientByFamilyName(ctx context.Context, familyName string) ([]fhir_dto.Patient, error)
}
