package patients

import (
	"caresync-service/internal/app/config"
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/dto/requests"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/fhir_dto"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockLockerService struct {
	mock.Mock
}

func (m *MockLockerService) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	args := m.Called(ctx, key, expiration)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockLockerService) Unlock(ctx context.Context, key, lockValue string) error {
	args := m.Called(ctx, key, lockValue)
	return args.Error(0)
}

type MockRedisRepository struct {
	mock.Mock
}

func (m *MockRedisRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRedisRepository) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	args := m.Called(ctx, key, value, exp)
	return args.Error(0)
}

func (m *MockRedisRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRedisRepository) TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, exp)
	return args.Bool(0), args.Error(1)
}

type MockSyncEventPublisher struct {
	mock.Mock
}

func (m *MockSyncEventPublisher) PublishRecordSynced(ctx context.Context, event models.PatientSyncEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, bucketName, objectName, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetObjectUrlWithExpiryTime(ctx context.Context, bucketName, objectName string, expiryTime time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiryTime)
	return args.String(0), args.Error(1)
}

type usecaseFixture struct {
	usecase    contracts.PatientUsecase
	repo       *MockPatientRepository
	fhirClient *MockPatientFhirClient
	locker     *MockLockerService
	redis      *MockRedisRepository
	events     *MockSyncEventPublisher
	storage    *MockStorage
}

func newUsecaseFixture() *usecaseFixture {
	f := &usecaseFixture{
		repo:       new(MockPatientRepository),
		fhirClient: new(MockPatientFhirClient),
		locker:     new(MockLockerService),
		redis:      new(MockRedisRepository),
		events:     new(MockSyncEventPublisher),
		storage:    new(MockStorage),
	}
	internalConfig := &config.InternalConfig{
		App: config.App{SyncTimeoutInSeconds: 5, PhotoMaxUploadSizeInMB: 5},
	}
	driverConfig := &config.DriverConfig{
		Minio: config.Minio{BucketName: "patient-photos"},
	}
	f.usecase = NewPatientUsecase(
		f.repo, f.fhirClient, f.locker, f.redis, f.events, f.storage,
		internalConfig, driverConfig, zap.NewNop(),
	)
	return f
}

func savedRecord() *models.PatientRecord {
	return &models.PatientRecord{
		LocalID:    "local-1",
		GivenName:  "Jane",
		FamilyName: "Doe",
		BirthDate:  "1990-01-01",
		Gender:     models.GenderFemale,
		SyncState:  models.SyncStateSavedLocal,
	}
}

func TestPatientUsecase_CreateDraft(t *testing.T) {
	t.Run("complete draft is persisted", func(t *testing.T) {
		f := newUsecaseFixture()
		f.repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		givenName, familyName := "Jane", "Doe"
		birthDate, gender := "1990-01-01", "female"
		response, err := f.usecase.CreateDraft(context.Background(), &requests.UpsertPatientDraft{
			GivenName:  &givenName,
			FamilyName: &familyName,
			BirthDate:  &birthDate,
			Gender:     &gender,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, response.LocalID)
		assert.Empty(t, response.ServerID)
		assert.True(t, response.CanUpload)
		assert.False(t, response.CanDownload)
		assert.Equal(t, string(models.SyncStateSavedLocal), response.SyncState)
	})

	t.Run("incomplete draft is rejected before storage", func(t *testing.T) {
		f := newUsecaseFixture()

		givenName := "Jane"
		_, err := f.usecase.CreateDraft(context.Background(), &requests.UpsertPatientDraft{GivenName: &givenName})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, exceptions.KindValidation, customErr.Kind)
		f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestPatientUsecase_Upload(t *testing.T) {
	t.Run("uploads under the record lock and publishes an event", func(t *testing.T) {
		f := newUsecaseFixture()
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
		f.locker.On("TryLock", mock.Anything, "caresync:lock:patient:local-1", mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, "caresync:lock:patient:local-1", "lock-value").Return(nil)

		canonical := &fhir_dto.Patient{ID: "42", ResourceType: "Patient", Gender: "female", BirthDate: "1990-01-01"}
		f.fhirClient.On("CreatePatient", mock.Anything, mock.Anything).Return(canonical, nil)
		f.repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.redis.On("Delete", mock.Anything, "caresync:cache:patient:local-1").Return(nil)
		f.events.On("PublishRecordSynced", mock.Anything, mock.MatchedBy(func(event models.PatientSyncEvent) bool {
			return event.LocalID == "local-1" && event.ServerID == "42" && event.Direction == models.SyncDirectionUpload
		})).Return(nil)

		response, err := f.usecase.Upload(context.Background(), "local-1")
		require.NoError(t, err)
		assert.Equal(t, "42", response.ServerID)
		assert.True(t, response.CanDownload)

		f.locker.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("lock contention is reported as a conflict before the record is even read", func(t *testing.T) {
		f := newUsecaseFixture()
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(false, "", nil)

		_, err := f.usecase.Upload(context.Background(), "local-1")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, 409, customErr.StatusCode)
		f.repo.AssertNotCalled(t, "FindByLocalID", mock.Anything, mock.Anything)
		f.fhirClient.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything)
		f.locker.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown record is not found", func(t *testing.T) {
		f := newUsecaseFixture()
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.repo.On("FindByLocalID", mock.Anything, "missing").Return(nil, nil)

		_, err := f.usecase.Upload(context.Background(), "missing")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, 404, customErr.StatusCode)
	})

	t.Run("broker outage does not fail a completed sync", func(t *testing.T) {
		f := newUsecaseFixture()
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		canonical := &fhir_dto.Patient{ID: "42", ResourceType: "Patient"}
		f.fhirClient.On("CreatePatient", mock.Anything, mock.Anything).Return(canonical, nil)
		f.repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.redis.On("Delete", mock.Anything, mock.Anything).Return(nil)
		f.events.On("PublishRecordSynced", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		response, err := f.usecase.Upload(context.Background(), "local-1")
		require.NoError(t, err)
		assert.Equal(t, "42", response.ServerID)
	})
}

func TestPatientUsecase_Download(t *testing.T) {
	t.Run("record without server id fails the precondition before any network call", func(t *testing.T) {
		f := newUsecaseFixture()
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.usecase.Download(context.Background(), "local-1")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, exceptions.KindValidation, customErr.Kind)
		f.fhirClient.AssertNotCalled(t, "FindPatientByID", mock.Anything, mock.Anything)
	})

	t.Run("replaces local state with the canonical copy", func(t *testing.T) {
		record := savedRecord()
		record.ServerID = "42"
		record.SyncState = models.SyncStateSynced

		f := newUsecaseFixture()
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(record, nil)
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		canonical := &fhir_dto.Patient{
			ID:           "42",
			ResourceType: "Patient",
			Name:         []fhir_dto.HumanName{{Family: "Smith", Given: []string{"Janet"}}},
			Gender:       "female",
			BirthDate:    "1991-02-02",
		}
		f.fhirClient.On("FindPatientByID", mock.Anything, "42").Return(canonical, nil)
		f.repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.redis.On("Delete", mock.Anything, mock.Anything).Return(nil)
		f.events.On("PublishRecordSynced", mock.Anything, mock.Anything).Return(nil)

		response, err := f.usecase.Download(context.Background(), "local-1")
		require.NoError(t, err)
		assert.Equal(t, "Janet", response.GivenName)
		assert.Equal(t, "Smith", response.FamilyName)
		assert.Equal(t, "1991-02-02", response.BirthDate)
	})
}

func TestPatientUsecase_GetRecord(t *testing.T) {
	t.Run("cache miss falls through to the repository and caches", func(t *testing.T) {
		f := newUsecaseFixture()
		f.redis.On("Get", mock.Anything, "caresync:cache:patient:local-1").Return("", nil)
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
		f.redis.On("Set", mock.Anything, "caresync:cache:patient:local-1", mock.Anything, mock.Anything).Return(nil)

		response, err := f.usecase.GetRecord(context.Background(), "local-1")
		require.NoError(t, err)
		assert.Equal(t, "local-1", response.LocalID)
		assert.Equal(t, "Jane", response.GivenName)
		f.redis.AssertExpectations(t)
	})

	t.Run("cache hit never touches the repository", func(t *testing.T) {
		f := newUsecaseFixture()
		f.redis.On("Get", mock.Anything, "caresync:cache:patient:local-1").
			Return(`{"local_id":"local-1","given_name":"Jane","family_name":"Doe","birth_date":"1990-01-01","gender":"female","sync_state":"saved_local"}`, nil)

		response, err := f.usecase.GetRecord(context.Background(), "local-1")
		require.NoError(t, err)
		assert.Equal(t, "local-1", response.LocalID)
		f.repo.AssertNotCalled(t, "FindByLocalID", mock.Anything, mock.Anything)
	})
}

func TestPatientUsecase_SearchByFamilyName(t *testing.T) {
	f := newUsecaseFixture()
	f.fhirClient.On("FindPatientByFamilyName", mock.Anything, "Doe").Return([]fhir_dto.Patient{
		{ID: "42", ResourceType: "Patient"},
		{ID: "43", ResourceType: "Patient"},
	}, nil)

	response, err := f.usecase.SearchByFamilyName(context.Background(), "Doe")
	require.NoError(t, err)
	assert.Equal(t, 2, response.Total)
	require.Len(t, response.Patients, 2)
}

func TestPatientUsecase_UpdateDraft(t *testing.T) {
	t.Run("saves under the record lock", func(t *testing.T) {
		f := newUsecaseFixture()
		f.locker.On("TryLock", mock.Anything, "caresync:lock:patient:local-1", mock.Anything).Return(true, "lock-value", nil)
		f.locker.On("Unlock", mock.Anything, "caresync:lock:patient:local-1", "lock-value").Return(nil)
		f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
		f.repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.redis.On("Delete", mock.Anything, mock.Anything).Return(nil)

		givenName := "Janet"
		response, err := f.usecase.UpdateDraft(context.Background(), "local-1", &requests.UpsertPatientDraft{GivenName: &givenName})
		require.NoError(t, err)
		assert.Equal(t, "Janet", response.GivenName)
		f.locker.AssertExpectations(t)
	})

	t.Run("does not touch the record while a sync holds it", func(t *testing.T) {
		f := newUsecaseFixture()
		f.locker.On("TryLock", mock.Anything, mock.Anything, mock.Anything).Return(false, "", nil)

		givenName := "Janet"
		_, err := f.usecase.UpdateDraft(context.Background(), "local-1", &requests.UpsertPatientDraft{GivenName: &givenName})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.True(t, errors.As(err, &customErr))
		assert.Equal(t, 409, customErr.StatusCode)
		f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestPatientUsecase_AttachPhoto(t *testing.T) {
	f := newUsecaseFixture()
	f.locker.On("TryLock", mock.Anything, "caresync:lock:patient:local-1", mock.Anything).Return(true, "lock-value", nil)
	f.locker.On("Unlock", mock.Anything, "caresync:lock:patient:local-1", "lock-value").Return(nil)
	f.repo.On("FindByLocalID", mock.Anything, "local-1").Return(savedRecord(), nil)
	f.storage.On("UploadObject", mock.Anything, "patient-photos", mock.Anything, []byte("image-bytes"), "image/jpeg").
		Return("object-name", nil)
	f.repo.On("Upsert", mock.Anything, mock.MatchedBy(func(record *models.PatientRecord) bool {
		return record.PhotoObjectName != ""
	})).Return(nil)
	f.redis.On("Delete", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("GetObjectUrlWithExpiryTime", mock.Anything, "patient-photos", mock.Anything, mock.Anything).
		Return("https://example.test/presigned", nil)

	response, err := f.usecase.AttachPhoto(context.Background(), "local-1", []byte("image-bytes"), "photo.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "local-1", response.LocalID)
	assert.NotEmpty(t, response.ObjectName)
	assert.Equal(t, "https://example.test/presigned", response.Url)
}

type memoryPatientRepository struct {
	mu      sync.Mutex
	records map[string]models.PatientRecord
}

func (r *memoryPatientRepository) Upsert(ctx context.Context, record *models.PatientRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.LocalID] = *record
	return nil
}

func (r *memoryPatientRepository) FindByLocalID(ctx context.Context, localID string) (*models.PatientRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[localID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *memoryPatientRepository) FindByServerID(ctx context.Context, serverID string) (*models.PatientRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ServerID == serverID {
			recordCopy := record
			return &recordCopy, nil
		}
	}
	return nil, nil
}

// queuedLockService is a single-holder lock whose TryLock waits for the
// holder instead of failing, so a contended interleaving runs start to
// finish deterministically.
type queuedLockService struct {
	sem chan struct{}
}

func (l *queuedLockService) TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error) {
	l.sem <- struct{}{}
	return true, "holder", nil
}

func (l *queuedLockService) Unlock(ctx context.Context, key, lockValue string) error {
	<-l.sem
	return nil
}

type countingFhirClient struct {
	mu       sync.Mutex
	creates  int
	updates  int
	onCreate func()
}

func (c *countingFhirClient) CreatePatient(ctx context.Context, resource *fhir_dto.Patient) (*fhir_dto.Patient, error) {
	c.mu.Lock()
	c.creates++
	callback := c.onCreate
	c.onCreate = nil
	c.mu.Unlock()
	if callback != nil {
		callback()
	}
	canonical := *resource
	canonical.ID = "42"
	return &canonical, nil
}

func (c *countingFhirClient) UpdatePatient(ctx context.Context, resource *fhir_dto.Patient) (*fhir_dto.Patient, error) {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
	canonical := *resource
	return &canonical, nil
}

func (c *countingFhirClient) FindPatientByID(ctx context.Context, patientID string) (*fhir_dto.Patient, error) {
	return &fhir_dto.Patient{ID: patientID, ResourceType: "Patient"}, nil
}

func (c *countingFhirClient) FindPatientByFamilyName(ctx context.Context, familyName string) ([]fhir_dto.Patient, error) {
	return nil, nil
}

type noopRedisRepository struct{}

func (noopRedisRepository) Delete(ctx context.Context, key string) error { return nil }
func (noopRedisRepository) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return nil
}
func (noopRedisRepository) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (noopRedisRepository) TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	return true, nil
}

type noopSyncEventPublisher struct{}

func (noopSyncEventPublisher) PublishRecordSynced(ctx context.Context, event models.PatientSyncEvent) error {
	return nil
}

// Two racing uploads of one record: the upload that loses the lock must
// load the record only after winning it, see the winner's freshly assigned
// server id, and dispatch an update. Loading before the lock would snapshot
// a record without a server id and create a duplicate Patient remotely.
func TestPatientUsecase_ConcurrentUploadsCreateOnce(t *testing.T) {
	repo := &memoryPatientRepository{records: map[string]models.PatientRecord{
		"local-1": *savedRecord(),
	}}
	lockerService := &queuedLockService{sem: make(chan struct{}, 1)}
	fhirClient := &countingFhirClient{}

	usecase := NewPatientUsecase(
		repo, fhirClient, lockerService, noopRedisRepository{}, noopSyncEventPublisher{}, new(MockStorage),
		&config.InternalConfig{App: config.App{SyncTimeoutInSeconds: 5}},
		&config.DriverConfig{},
		zap.NewNop(),
	)

	secondDone := make(chan error, 1)
	fhirClient.onCreate = func() {
		// The first upload is mid-flight and still holds the record lock:
		// start the second upload now, so it queues on the lock.
		go func() {
			_, err := usecase.Upload(context.Background(), "local-1")
			secondDone <- err
		}()
	}

	_, err := usecase.Upload(context.Background(), "local-1")
	require.NoError(t, err)
	require.NoError(t, <-secondDone)

	assert.Equal(t, 1, fhirClient.creates, "only the first upload may create")
	assert.Equal(t, 1, fhirClient.updates, "the queued upload must update the created resource")

	record, err := repo.FindByLocalID(context.Background(), "local-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "42", record.ServerID)
	assert.Equal(t, models.SyncStateSynced, record.SyncState)
}
