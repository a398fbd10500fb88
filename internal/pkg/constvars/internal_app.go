package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_API_KEY_AUTH_KEY         ContextKey = "api_key_auth"
)

const (
	REQUEST_ID_PREFIX = "CRSYNC_SVC_"
)

const (
	URLParamLocalID = "local_id"

	MultipartFormFieldPhoto = "photo"
)

const (
	// Per-record sync lock settings. A lock outlives the longest expected
	// FHIR round-trip so a crashed holder cannot wedge a record forever.
	SyncLockKeyFormat   = "caresync:lock:patient:%s"
	SyncLockTTLSeconds  = 30
	PatientCacheKeyFmt  = "caresync:cache:patient:%s"
	PatientCacheTTLSecs = 60
)
