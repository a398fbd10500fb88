package contracts

import (
	"caresync-service/internal/app/models"
	"context"
)

// SyncEventPublisher notifies downstream consumers after a record has been
// reconciled with the FHIR server. Publishing failures are logged, never
// surfaced to the sync caller.
type SyncEventPublisher interface {
	PublishRecordSynced(ctx context.Context, event models.PatientSyncEvent) error
}
