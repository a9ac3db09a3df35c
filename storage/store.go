package storage

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/Amrl666/asclepius-be/datastructures"
)

const predictionsCollection = "predictions"

type PredictionStore interface {
	Save(ctx context.Context, record datastructures.PredictionRecord) error
}

// FirestoreStore persists prediction records to a Firestore collection.
// Records are written once and never read back or updated by this service.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectId string, credentialsFile string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectId, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	return &FirestoreStore{client: client}, nil
}

// Save writes one record keyed by its id. The id is the document key and is
// not duplicated in the document fields.
func (s *FirestoreStore) Save(ctx context.Context, record datastructures.PredictionRecord) error {
	_, err := s.client.Collection(predictionsCollection).Doc(record.Id).Set(ctx, map[string]interface{}{
		"result":     record.Result,
		"suggestion": record.Suggestion,
		"createdAt":  record.CreatedAt,
	})
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
