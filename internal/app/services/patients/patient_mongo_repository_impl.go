package patients

import (
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PatientMongoRepository struct {
	Collection *mongo.Collection
}

func NewPatientMongoRepository(db *mongo.Client, dbName string) contracts.PatientRepository {
	return &PatientMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionPatientRecords),
	}
}

func (r *PatientMongoRepository) Upsert(ctx context.Context, record *models.PatientRecord) error {
	filter := bson.M{"_id": record.LocalID}
	_, err := r.Collection.ReplaceOne(ctx, filter, record, options.Replace().SetUpsert(true))
	if err != nil {
		return exceptions.ErrMongoDBUpsertDocument(err)
	}
	return nil
}

func (r *PatientMongoRepository) FindByLocalID(ctx context.Context, localID string) (*models.PatientRecord, error) {
	var record models.PatientRecord
	err := r.Collection.FindOne(ctx, bson.M{"_id": localID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &record, nil
}

func (r *PatientMongoRepository) FindByServerID(ctx context.Context, serverID string) (*models.PatientRecord, error) {
	var record models.PatientRecord
	err := r.Collection.FindOne(ctx, bson.M{"serverId": serverID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &record, nil
}
