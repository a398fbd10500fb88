package constvars

var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"len":      "must be %s characters long",
	"oneof":    "must be one of [%s]",
	"notblank": "must not be blank",
	"fhirdate": "must be a valid date in YYYY-MM-DD format",
}

var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"len":   true,
	"oneof": true,
}

// Client-facing messages. Kept deliberately vague so internals never leak.
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientRecordNotFound                = "patient record not found"
	ErrClientRecordNotSaveable             = "patient draft is incomplete, fill in the required fields first"
	ErrClientRecordNotUploadable           = "patient record must be saved locally before it can be uploaded"
	ErrClientRecordNotDownloadable         = "patient record has never been uploaded, there is nothing to download"
	ErrClientRecordBusy                    = "another synchronization for this record is still running, try again shortly"
	ErrClientRemoteServerFailed            = "the clinical record server rejected the request"
	ErrClientRemoteServerUnreachable       = "the clinical record server cannot be reached"
	ErrClientInvalidPhotoFormat            = "the photo you uploaded does not meet the specified standards"
)

// Developer-facing messages, logged but only returned outside production.
const (
	ErrDevInvalidInput             = "invalid input"
	ErrDevValidationFailed         = "validation failed"
	ErrDevCannotParseJSON          = "cannot parse JSON into struct or other data types"
	ErrDevCannotMarshalJSON        = "cannot convert struct or other data types to JSON"
	ErrDevCannotParseMultipartForm = "cannot parse multipart form body"
	ErrDevCannotParseBirthDate     = "cannot parse birth date, expected YYYY-MM-DD"
	ErrDevURLParamValidationFailed = "parameter %s validation failed"

	ErrDevCreateHTTPRequest = "failed to create HTTP request"
	ErrDevSendHTTPRequest   = "failed to send HTTP request"

	ErrDevRecordNotSaveable     = "draft does not satisfy canSave"
	ErrDevRecordNotUploadable   = "no local record exists for this editor, canUpload is false"
	ErrDevRecordNotDownloadable = "record has no server id, canDownload is false"
	ErrDevRecordNotFound        = "no patient record with the given local id"
	ErrDevSyncLockNotAcquired   = "sync lock for record already held"

	ErrDevFhirCreateResource   = "FHIR server failed to create %s: status %d, body %s"
	ErrDevFhirUpdateResource   = "FHIR server failed to update %s: status %d, body %s"
	ErrDevFhirGetResource      = "FHIR server failed to return %s: status %d, body %s"
	ErrDevFhirSearchResource   = "FHIR server failed to search %s: status %d, body %s"
	ErrDevFhirDecodeResource   = "failed to decode FHIR %s response"
	ErrDevFhirTransportFailure = "transport-level failure talking to FHIR server"
	ErrDevFhirSignRequest      = "failed to sign outbound FHIR request"

	ErrDevDBFailedToFindDocument   = "failed to find document"
	ErrDevDBFailedToUpsertDocument = "failed to upsert document"
	ErrDevDBStringNotObjectID      = "given string cannot be converted to mongo ObjectID"
	ErrDevPersistAfterSync         = "local persistence failed after a successful remote write, local and remote are now inconsistent"

	ErrDevRedisGetData      = "failed to get data from redis"
	ErrDevRedisSetData      = "failed to set data to redis"
	ErrDevRedisDeleteData   = "failed to delete data from redis"
	ErrDevRedisLockMismatch = "lock not owned by this client"

	ErrDevRabbitMQPublishMessage = "failed to publish message to queue %s"
	ErrDevRabbitMQNoConfirm      = "publish to queue %s was not confirmed by broker"

	ErrDevMinioFailedToCreateObject = "failed to create object in bucket %s"
	ErrDevMinioFailedToPresign      = "failed to presign object url in bucket %s"

	ErrDevAuthInvalidAPIKey = "invalid API key"
	ErrDevAuthGenerateToken = "failed to generate token"
)
