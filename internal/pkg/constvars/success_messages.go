package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Patient record messages
	PatientDraftCreatedSuccess    = "patient draft saved locally"
	PatientDraftUpdatedSuccess    = "patient draft updated"
	PatientRecordGetSuccess       = "get patient record successfully"
	PatientUploadSuccess          = "patient record uploaded to the clinical record server"
	PatientDownloadSuccess        = "patient record refreshed from the clinical record server"
	PatientSearchSuccess          = "patient search completed"
	PatientPhotoUploadedSuccess   = "patient photo stored"
	PatientValidationStateSuccess = "patient draft validity computed"
)
