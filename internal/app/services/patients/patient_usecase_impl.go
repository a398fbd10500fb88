package patients

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/dto/requests"
	"caresync-service/internal/pkg/dto/responses"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/fhir_dto"
	"caresync-service/internal/pkg/utils"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type patientUsecase struct {
	PatientRepository contracts.PatientRepository
	PatientFhirClient contracts.PatientFhirClient
	LockerService     contracts.LockerService
	RedisRepository   contracts.RedisRepository
	SyncEvents        contracts.SyncEventPublisher
	Storage           contracts.Storage
	InternalConfig    *config.InternalConfig
	DriverConfig      *config.DriverConfig
	Log               *zap.Logger
}

func NewPatientUsecase(
	patientRepository contracts.PatientRepository,
	patientFhirClient contracts.PatientFhirClient,
	lockerService contracts.LockerService,
	redisRepository contracts.RedisRepository,
	syncEvents contracts.SyncEventPublisher,
	storage contracts.Storage,
	internalConfig *config.InternalConfig,
	driverConfig *config.DriverConfig,
	logger *zap.Logger,
) contracts.PatientUsecase {
	return &patientUsecase{
		PatientRepository: patientRepository,
		PatientFhirClient: patientFhirClient,
		LockerService:     lockerService,
		RedisRepository:   redisRepository,
		SyncEvents:        syncEvents,
		Storage:           storage,
		InternalConfig:    internalConfig,
		DriverConfig:      driverConfig,
		Log:               logger,
	}
}

func (uc *patientUsecase) CreateDraft(ctx context.Context, request *requests.UpsertPatientDraft) (*responses.PatientRecordResponse, error) {
	editor := NewPatientEditor(uc.PatientRepository, uc.PatientFhirClient, uc.Log)
	applyDraftRequest(editor, request)

	if _, err := editor.Save(ctx); err != nil {
		return nil, err
	}
	return buildRecordResponse(editor), nil
}

func (uc *patientUsecase) UpdateDraft(ctx context.Context, localID string, request *requests.UpsertPatientDraft) (*responses.PatientRecordResponse, error) {
	unlock, err := uc.lockRecord(ctx, localID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	editor, err := uc.editorFor(ctx, localID)
	if err != nil {
		return nil, err
	}
	applyDraftRequest(editor, request)

	if _, err := editor.Save(ctx); err != nil {
		return nil, err
	}
	uc.invalidateCache(ctx, localID)
	return buildRecordResponse(editor), nil
}

func (uc *patientUsecase) GetRecord(ctx context.Context, localID string) (*responses.PatientRecordResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	cacheKey := fmt.Sprintf(constvars.PatientCacheKeyFmt, localID)
	cached, err := uc.RedisRepository.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var record models.PatientRecord
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			editor := NewPatientEditorFromRecord(&record, uc.PatientRepository, uc.PatientFhirClient, uc.Log)
			return buildRecordResponse(editor), nil
		}
	}

	record, err := uc.PatientRepository.FindByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, exceptions.ErrRecordNotFound()
	}

	if err := uc.RedisRepository.Set(ctx, cacheKey, record, constvars.PatientCacheTTLSecs*time.Second); err != nil {
		uc.Log.Error("patientUsecase.GetRecord error caching record",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}

	editor := NewPatientEditorFromRecord(record, uc.PatientRepository, uc.PatientFhirClient, uc.Log)
	return buildRecordResponse(editor), nil
}

func (uc *patientUsecase) Upload(ctx context.Context, localID string) (*responses.PatientRecordResponse, error) {
	return uc.sync(ctx, localID, models.SyncDirectionUpload)
}

func (uc *patientUsecase) Download(ctx context.Context, localID string) (*responses.PatientRecordResponse, error) {
	return uc.sync(ctx, localID, models.SyncDirectionDownload)
}

// sync runs one upload or download under the per-record lock, so two
// concurrent syncs of the same record cannot interleave their local writes.
// The lock is taken before the record is read: a snapshot loaded ahead of
// the lock could miss a server id a concurrent sync just assigned and
// dispatch a duplicate create.
func (uc *patientUsecase) sync(ctx context.Context, localID, direction string) (*responses.PatientRecordResponse, error) {
	unlock, err := uc.lockRecord(ctx, localID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	editor, err := uc.editorFor(ctx, localID)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	onComplete := func(syncErr error) { done <- syncErr }

	if direction == models.SyncDirectionUpload {
		err = editor.Upload(ctx, onComplete)
	} else {
		err = editor.Download(ctx, onComplete)
	}
	if err != nil {
		// Precondition failure: nothing was dispatched.
		return nil, err
	}

	if syncErr := <-done; syncErr != nil {
		return nil, syncErr
	}

	uc.invalidateCache(ctx, localID)
	uc.publishSyncEvent(ctx, editor, direction)
	return buildRecordResponse(editor), nil
}

func (uc *patientUsecase) SearchByFamilyName(ctx context.Context, familyName string) (*responses.PatientSearchResponse, error) {
	patients, err := uc.PatientFhirClient.FindPatientByFamilyName(ctx, familyName)
	if err != nil {
		return nil, err
	}
	return &responses.PatientSearchResponse{
		Total:    len(patients),
		Patients: patients,
	}, nil
}

func (uc *patientUsecase) AttachPhoto(ctx context.Context, localID string, data []byte, fileName, contentType string) (*responses.PatientPhotoResponse, error) {
	unlock, err := uc.lockRecord(ctx, localID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	editor, err := uc.editorFor(ctx, localID)
	if err != nil {
		return nil, err
	}

	objectName := utils.GenerateFileName(constvars.MultipartFormFieldPhoto, localID, path.Ext(fileName))
	bucketName := uc.DriverConfig.Minio.BucketName
	if _, err := uc.Storage.UploadObject(ctx, bucketName, objectName, data, contentType); err != nil {
		return nil, err
	}

	editor.SetPhotoObjectName(objectName)
	if _, err := editor.Save(ctx); err != nil {
		return nil, err
	}
	uc.invalidateCache(ctx, localID)

	url, err := uc.Storage.GetObjectUrlWithExpiryTime(ctx, bucketName, objectName, time.Hour)
	if err != nil {
		return nil, err
	}

	return &responses.PatientPhotoResponse{
		LocalID:    localID,
		ObjectName: objectName,
		Url:        url,
	}, nil
}

// lockRecord takes the per-record redis lock guarding every save, upload
// and download of one local key. It returns the release func, or a 409
// conflict when another request currently holds the record.
func (uc *patientUsecase) lockRecord(ctx context.Context, localID string) (func(), error) {
	lockKey := fmt.Sprintf(constvars.SyncLockKeyFormat, localID)
	acquired, lockValue, err := uc.LockerService.TryLock(ctx, lockKey, constvars.SyncLockTTLSeconds*time.Second)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, exceptions.ErrSyncLockNotAcquired()
	}
	return func() {
		if err := uc.LockerService.Unlock(ctx, lockKey, lockValue); err != nil {
			requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
			uc.Log.Error("patientUsecase.lockRecord error releasing lock",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingLocalIDKey, localID),
				zap.Error(err),
			)
		}
	}, nil
}

// editorFor loads the record and wraps it in an editor, or reports not
// found.
func (uc *patientUsecase) editorFor(ctx context.Context, localID string) (*PatientEditor, error) {
	record, err := uc.PatientRepository.FindByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, exceptions.ErrRecordNotFound()
	}
	return NewPatientEditorFromRecord(record, uc.PatientRepository, uc.PatientFhirClient, uc.Log), nil
}

func (uc *patientUsecase) invalidateCache(ctx context.Context, localID string) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	cacheKey := fmt.Sprintf(constvars.PatientCacheKeyFmt, localID)
	if err := uc.RedisRepository.Delete(ctx, cacheKey); err != nil {
		uc.Log.Error("patientUsecase.invalidateCache error deleting cache entry",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRedisKey, cacheKey),
			zap.Error(err),
		)
	}
}

// publishSyncEvent is best effort: a broker outage must not fail a sync
// that already completed.
func (uc *patientUsecase) publishSyncEvent(ctx context.Context, editor *PatientEditor, direction string) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	event := models.PatientSyncEvent{
		LocalID:   editor.LocalID(),
		ServerID:  editor.ServerID(),
		Direction: direction,
		Record:    editor.Record(),
		SyncedAt:  time.Now(),
	}
	if err := uc.SyncEvents.PublishRecordSynced(ctx, event); err != nil {
		uc.Log.Error("patientUsecase.publishSyncEvent error publishing event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingLocalIDKey, event.LocalID),
			zap.Error(err),
		)
	}
}

func applyDraftRequest(editor *PatientEditor, request *requests.UpsertPatientDraft) {
	if request.GivenName != nil {
		editor.SetGivenName(*request.GivenName)
	}
	if request.FamilyName != nil {
		editor.SetFamilyName(*request.FamilyName)
	}
	if request.BirthDate != nil {
		editor.SetBirthDate(*request.BirthDate)
	}
	if request.Gender != nil {
		editor.SetGender(*request.Gender)
	}
	if request.Telecom != nil {
		telecom := make([]fhir_dto.ContactPoint, 0, len(request.Telecom))
		for _, contact := range request.Telecom {
			telecom = append(telecom, contact.ToContactPoint())
		}
		editor.SetTelecom(telecom)
	}
}

func buildRecordResponse(editor *PatientEditor) *responses.PatientRecordResponse {
	response := &responses.PatientRecordResponse{
		LocalID:     editor.LocalID(),
		ServerID:    editor.ServerID(),
		SyncState:   string(editor.SyncState()),
		CanSave:     editor.CanSave(),
		CanUpload:   editor.CanUpload(),
		CanDownload: editor.CanDownload(),
	}
	if record := editor.Record(); record != nil {
		response.GivenName = record.GivenName
		response.FamilyName = record.FamilyName
		response.BirthDate = record.BirthDate
		response.Gender = string(record.Gender)
		response.Telecom = record.Telecom
		response.PhotoObjectName = record.PhotoObjectName
	}
	return response
}
