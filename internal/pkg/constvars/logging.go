package constvars

const (
	LoggingRequestIDKey          = "request_id"
	LoggingMethodKey             = "method"
	LoggingEndpointKey           = "endpoint"
	LoggingRemoteAddrKey         = "remote_addr"
	LoggingUserAgentKey          = "user_agent"
	LoggingQueryKey              = "query"
	LoggingStatusCodeKey         = "status_code"
	LoggingDurationKey           = "duration"
	LoggingSuccessKey            = "success"
	LoggingLocalIDKey            = "local_id"
	LoggingServerIDKey           = "server_id"
	LoggingPatientIDKey          = "patient_id"
	LoggingPatientCountKey       = "patient_count"
	LoggingSyncStateKey          = "sync_state"
	LoggingRedisKey              = "redis_key"
	LoggingLockValueKey          = "lock_value"
	LoggingLockStoredValueKey    = "lock_stored_value"
	LoggingLockExpectedValueKey  = "lock_expected_value"
	LoggingLockExpirationTimeKey = "lock_expiration_time"
	LoggingQueueNameKey          = "queue_name"
	LoggingObjectNameKey         = "object_name"
	LoggingBucketNameKey         = "bucket_name"
	LoggingUpstreamStatusKey     = "upstream_status"
)
