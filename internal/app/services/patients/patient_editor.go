package patients

import (
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"caresync-service/internal/pkg/fhir_dto"
	"caresync-service/internal/pkg/utils"
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CanSaveObserver receives the new saveability value whenever it flips.
// Callbacks run synchronously on the mutating goroutine, after the editor's
// internal lock is released, so an observer may call back into the editor.
type CanSaveObserver func(canSave bool)

// PatientEditor owns one editable draft of a patient and drives local save,
// remote upload and remote download for it. The draft is never shared: the
// editor is the only writer. An editor instance serializes its own
// operations with an internal mutex, so save racing a completing upload
// cannot produce a lost update within one instance; cross-instance
// serialization on the same record is the caller's job.
type PatientEditor struct {
	log        *zap.Logger
	repository contracts.PatientRepository
	fhirClient contracts.PatientFhirClient

	mu          sync.Mutex
	draft       models.PatientDraft
	record      *models.PatientRecord
	localID     string
	serverID    string
	syncState   models.SyncState
	observers   map[int]CanSaveObserver
	nextObsID   int
	lastCanSave bool
}

// NewPatientEditor starts a blank draft in new-record mode.
func NewPatientEditor(repository contracts.PatientRepository, fhirClient contracts.PatientFhirClient, logger *zap.Logger) *PatientEditor {
	return &PatientEditor{
		log:        logger,
		repository: repository,
		fhirClient: fhirClient,
		syncState:  models.SyncStateNew,
		observers:  make(map[int]CanSaveObserver),
	}
}

// NewPatientEditorFromRecord rebuilds an editor around an already saved
// record, remembering its local key and server id.
func NewPatientEditorFromRecord(record *models.PatientRecord, repository contracts.PatientRepository, fhirClient contracts.PatientFhirClient, logger *zap.Logger) *PatientEditor {
	recordCopy := *record
	editor := &PatientEditor{
		log:        logger,
		repository: repository,
		fhirClient: fhirClient,
		draft:      models.DraftFromRecord(&recordCopy),
		record:     &recordCopy,
		localID:    recordCopy.LocalID,
		serverID:   recordCopy.ServerID,
		syncState:  recordCopy.SyncState,
		observers:  make(map[int]CanSaveObserver),
	}
	editor.lastCanSave = editor.computeCanSave()
	return editor
}

// NewPatientEditorFromResource starts an editor from a server resource that
// has no local record yet. The server id is remembered, so downloading is
// possible before the first local save.
func NewPatientEditorFromResource(resource *fhir_dto.Patient, repository contracts.PatientRepository, fhirClient contracts.PatientFhirClient, logger *zap.Logger) *PatientEditor {
	editor := &PatientEditor{
		log:        logger,
		repository: repository,
		fhirClient: fhirClient,
		draft:      models.DraftFromResource(resource),
		serverID:   resource.ID,
		syncState:  models.SyncStateNew,
		observers:  make(map[int]CanSaveObserver),
	}
	editor.lastCanSave = editor.computeCanSave()
	return editor
}

// Observe registers a saveability observer and returns its unsubscribe
// function. The observer is only invoked on transitions, not on every
// mutation.
func (e *PatientEditor) Observe(observer CanSaveObserver) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = observer
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *PatientEditor) SetGivenName(givenName string) bool {
	return e.mutateDraft(func() {
		e.draft.GivenName = &givenName
	})
}

func (e *PatientEditor) SetFamilyName(familyName string) bool {
	return e.mutateDraft(func() {
		e.draft.FamilyName = &familyName
	})
}

func (e *PatientEditor) SetBirthDate(birthDate string) bool {
	return e.mutateDraft(func() {
		e.draft.BirthDate = &birthDate
	})
}

// SetGender decodes the wire value, falling back to unknown on anything
// outside the closed set.
func (e *PatientEditor) SetGender(wire string) bool {
	return e.mutateDraft(func() {
		gender := models.ParseGender(wire)
		e.draft.Gender = &gender
	})
}

func (e *PatientEditor) SetTelecom(telecom []fhir_dto.ContactPoint) bool {
	return e.mutateDraft(func() {
		e.draft.Telecom = append([]fhir_dto.ContactPoint(nil), telecom...)
	})
}

func (e *PatientEditor) AddContact(contact fhir_dto.ContactPoint) bool {
	return e.mutateDraft(func() {
		e.draft.Telecom = append(e.draft.Telecom, contact)
	})
}

func (e *PatientEditor) SetPhotoObjectName(objectName string) bool {
	return e.mutateDraft(func() {
		e.draft.PhotoObjectName = &objectName
	})
}

// mutateDraft applies one draft mutation under the lock, then notifies
// observers outside it.
func (e *PatientEditor) mutateDraft(apply func()) bool {
	e.mu.Lock()
	apply()
	canSave, observers := e.recomputeCanSaveLocked()
	e.mu.Unlock()

	for _, observer := range observers {
		observer(canSave)
	}
	return canSave
}

// CanSave is true iff both names are non-blank after trimming, the birth
// date is set and the gender is set. No storage or network access.
func (e *PatientEditor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeCanSave()
}

// CanUpload is true iff the draft has been saved locally at least once.
func (e *PatientEditor) CanUpload() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncState != models.SyncStateNew
}

// CanDownload is true iff the record carries a server id.
func (e *PatientEditor) CanDownload() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serverID != ""
}

// LocalID is empty until the first successful Save.
func (e *PatientEditor) LocalID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localID
}

func (e *PatientEditor) ServerID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serverID
}

func (e *PatientEditor) SyncState() models.SyncState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncState
}

// Record returns a copy of the backing record, or nil before the first
// save.
func (e *PatientEditor) Record() *models.PatientRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record == nil {
		return nil
	}
	recordCopy := *e.record
	return &recordCopy
}

// Save persists the draft into the local record, creating it with a fresh
// local key on first save. The server id is never assigned here. Saving
// twice without edits leaves identical contents and never reassigns the
// key.
func (e *PatientEditor) Save(ctx context.Context) (*models.PatientRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.computeCanSave() {
		return nil, exceptions.ErrRecordNotSaveable(e.missingFieldsLocked())
	}

	if e.record == nil {
		now := time.Now()
		e.localID = utils.GenerateLocalID()
		e.record = &models.PatientRecord{
			LocalID:   e.localID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	e.record.ApplyDraft(e.draft)
	if e.record.SyncState == "" || e.record.SyncState == models.SyncStateNew {
		e.record.SyncState = models.SyncStateSavedLocal
	}

	if err := e.repository.Upsert(ctx, e.record); err != nil {
		return nil, err
	}
	e.syncState = e.record.SyncState

	recordCopy := *e.record
	return &recordCopy, nil
}

// Upload sends the record to the FHIR server: a create when no server id is
// known yet, otherwise an update addressed by that id. The precondition is
// checked synchronously before any network access; past that point the call
// runs on its own goroutine and onComplete fires exactly once.
func (e *PatientEditor) Upload(ctx context.Context, onComplete func(error)) error {
	e.mu.Lock()
	if e.syncState == models.SyncStateNew || e.record == nil {
		e.mu.Unlock()
		return exceptions.ErrRecordNotUploadable()
	}
	resource := e.record.ToResource()
	serverID := e.serverID
	e.mu.Unlock()

	go func() {
		var canonical *fhir_dto.Patient
		var err error
		if serverID == "" {
			canonical, err = e.fhirClient.CreatePatient(ctx, resource)
		} else {
			canonical, err = e.fhirClient.UpdatePatient(ctx, resource)
		}
		if err != nil {
			onComplete(err)
			return
		}
		onComplete(e.adoptCanonical(ctx, canonical))
	}()
	return nil
}

// Download replaces the draft and record with the server's current
// representation, addressed by the known server id.
func (e *PatientEditor) Download(ctx context.Context, onComplete func(error)) error {
	e.mu.Lock()
	if e.serverID == "" {
		e.mu.Unlock()
		return exceptions.ErrRecordNotDownloadable()
	}
	serverID := e.serverID
	e.mu.Unlock()

	go func() {
		canonical, err := e.fhirClient.FindPatientByID(ctx, serverID)
		if err != nil {
			onComplete(err)
			return
		}
		onComplete(e.adoptCanonical(ctx, canonical))
	}()
	return nil
}

// adoptCanonical overwrites the record and draft with the server's returned
// representation and persists it. A persistence failure after a successful
// remote write is surfaced, never swallowed: local and remote are now
// inconsistent and the caller has to know.
func (e *PatientEditor) adoptCanonical(ctx context.Context, canonical *fhir_dto.Patient) error {
	e.mu.Lock()

	var previous *models.PatientRecord
	if e.record == nil {
		// Download on a never-saved record materializes one locally.
		now := time.Now()
		e.localID = utils.GenerateLocalID()
		e.record = &models.PatientRecord{
			LocalID:   e.localID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	} else {
		recordCopy := *e.record
		previous = &recordCopy
	}
	e.record.ApplyResource(canonical)
	if err := e.repository.Upsert(ctx, e.record); err != nil {
		if previous == nil {
			e.record = nil
			e.localID = ""
		} else {
			*e.record = *previous
		}
		e.mu.Unlock()
		e.log.Error("PatientEditor.adoptCanonical persist failed after successful sync",
			zap.String(constvars.LoggingServerIDKey, canonical.ID),
			zap.Error(err),
		)
		return exceptions.ErrPersistAfterSync(err)
	}

	e.serverID = e.record.ServerID
	e.syncState = e.record.SyncState
	e.draft = models.DraftFromRecord(e.record)
	canSave, observers := e.recomputeCanSaveLocked()
	e.mu.Unlock()

	for _, observer := range observers {
		observer(canSave)
	}
	return nil
}

func (e *PatientEditor) computeCanSave() bool {
	return e.draft.GivenName != nil && strings.TrimSpace(*e.draft.GivenName) != "" &&
		e.draft.FamilyName != nil && strings.TrimSpace(*e.draft.FamilyName) != "" &&
		e.draft.BirthDate != nil && *e.draft.BirthDate != "" &&
		e.draft.Gender != nil
}

func (e *PatientEditor) missingFieldsLocked() string {
	var missing []string
	if e.draft.GivenName == nil || strings.TrimSpace(*e.draft.GivenName) == "" {
		missing = append(missing, "given_name")
	}
	if e.draft.FamilyName == nil || strings.TrimSpace(*e.draft.FamilyName) == "" {
		missing = append(missing, "family_name")
	}
	if e.draft.BirthDate == nil || *e.draft.BirthDate == "" {
		missing = append(missing, "birth_date")
	}
	if e.draft.Gender == nil {
		missing = append(missing, "gender")
	}
	return strings.Join(missing, ", ")
}

// recomputeCanSaveLocked reports the current saveability and, only when the
// value flipped, the observers to notify. The caller invokes them after
// releasing the lock.
func (e *PatientEditor) recomputeCanSaveLocked() (bool, []CanSaveObserver) {
	canSave := e.computeCanSave()
	if canSave == e.lastCanSave {
		return canSave, nil
	}
	e.lastCanSave = canSave

	observers := make([]CanSaveObserver, 0, len(e.observers))
	for _, observer := range e.observers {
		observers = append(observers, observer)
	}
	return canSave, observers
}
