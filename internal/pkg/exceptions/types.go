package exceptions

import (
	"caresync-service/internal/pkg/constvars"
	"fmt"
)

var (
	// Parse / input
	ErrCannotParseJSON = func(err error) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseJSON)
	}
	ErrCannotMarshalJSON = func(err error) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevCannotMarshalJSON)
	}
	ErrCannotParseMultipartForm = func(err error) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseMultipartForm)
	}
	ErrCannotParseBirthDate = func(err error) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseBirthDate)
	}
	ErrInputValidation = func(err error) *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusBadRequest, FormatFirstValidationError(err), constvars.ErrDevValidationFailed)
	}
	ErrURLParamValidation = func(err error, paramName string) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevURLParamValidationFailed, paramName))
	}
	ErrPhotoValidation = func(err error) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusBadRequest, constvars.ErrClientInvalidPhotoFormat, constvars.ErrDevValidationFailed)
	}

	// Sync preconditions. These are reported before any network access.
	ErrRecordNotSaveable = func(detail string) *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusUnprocessableEntity, constvars.ErrClientRecordNotSaveable, fmt.Sprintf("%s: %s", constvars.ErrDevRecordNotSaveable, detail))
	}
	ErrRecordNotUploadable = func() *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusUnprocessableEntity, constvars.ErrClientRecordNotUploadable, constvars.ErrDevRecordNotUploadable)
	}
	ErrRecordNotDownloadable = func() *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusUnprocessableEntity, constvars.ErrClientRecordNotDownloadable, constvars.ErrDevRecordNotDownloadable)
	}
	ErrRecordNotFound = func() *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusNotFound, constvars.ErrClientRecordNotFound, constvars.ErrDevRecordNotFound)
	}
	ErrSyncLockNotAcquired = func() *CustomError {
		return buildKindError(nil, KindValidation, constvars.StatusConflict, constvars.ErrClientRecordBusy, constvars.ErrDevSyncLockNotAcquired)
	}

	// HTTP plumbing
	ErrCreateHTTPRequest = func(err error) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCreateHTTPRequest)
	}
	ErrFhirTransport = func(err error) *CustomError {
		return buildKindError(err, KindTransport, constvars.StatusBadGateway, constvars.ErrClientRemoteServerUnreachable, constvars.ErrDevFhirTransportFailure)
	}
	ErrFhirSignRequest = func(err error) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevFhirSignRequest)
	}

	// FHIR remote responses. The upstream status and body travel with the
	// error verbatim, per the gateway contract.
	ErrFhirCreateResource = remoteError(constvars.ErrDevFhirCreateResource)
	ErrFhirUpdateResource = remoteError(constvars.ErrDevFhirUpdateResource)
	ErrFhirGetResource    = remoteError(constvars.ErrDevFhirGetResource)
	ErrFhirSearchResource = remoteError(constvars.ErrDevFhirSearchResource)
	ErrFhirDecodeResource = func(err error, resource string) *CustomError {
		return buildKindError(err, KindRemote, constvars.StatusBadGateway, constvars.ErrClientRemoteServerFailed, fmt.Sprintf(constvars.ErrDevFhirDecodeResource, resource))
	}

	// Mongo
	ErrMongoDBFindDocument = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToFindDocument)
	}
	ErrMongoDBUpsertDocument = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToUpsertDocument)
	}
	ErrPersistAfterSync = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevPersistAfterSync)
	}

	// Redis
	ErrRedisGet = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevRedisGetData)
	}
	ErrRedisSet = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevRedisSetData)
	}
	ErrRedisDelete = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevRedisDeleteData)
	}
	ErrRedisUnlock = func(err error) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevRedisLockMismatch)
	}

	// RabbitMQ
	ErrRabbitMQPublishMessage = func(err error, queueName string) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevRabbitMQPublishMessage, queueName))
	}
	ErrRabbitMQNoConfirm = func(queueName string) *CustomError {
		return buildKindError(nil, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevRabbitMQNoConfirm, queueName))
	}

	// Minio
	ErrMinioCreateObject = func(err error, bucketName string) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevMinioFailedToCreateObject, bucketName))
	}
	ErrMinioPresignObject = func(err error, bucketName string) *CustomError {
		return buildKindError(err, KindPersistence, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevMinioFailedToPresign, bucketName))
	}

	// Auth
	ErrInvalidAPIKey = func(err error) *CustomError {
		return buildKindError(err, KindValidation, constvars.StatusUnauthorized, constvars.ErrClientNotAuthorized, constvars.ErrDevAuthInvalidAPIKey)
	}
	ErrTokenGenerate = func(err error) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevAuthGenerateToken)
	}

	// Default server
	ErrServerDeadlineExceeded = func(err error) *CustomError {
		return buildKindError(err, KindInternal, constvars.StatusGatewayTimeout, constvars.ErrClientServerLongRespond, "server deadline exceeded")
	}
)

// remoteError builds a constructor that records the upstream status and body
// on the returned error.
func remoteError(devFormat string) func(resource string, upstreamStatus int, upstreamBody []byte) *CustomError {
	return func(resource string, upstreamStatus int, upstreamBody []byte) *CustomError {
		e := buildKindError(nil, KindRemote, constvars.StatusBadGateway, constvars.ErrClientRemoteServerFailed,
			fmt.Sprintf(devFormat, resource, upstreamStatus, string(upstreamBody)))
		e.UpstreamStatus = upstreamStatus
		e.UpstreamBody = string(upstreamBody)
		return e
	}
}
