package storage

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Amrl666/asclepius-be/datastructures"
)

// Recorder turns a raw model probability into a persisted PredictionRecord.
type Recorder struct {
	store PredictionStore
}

func NewRecorder(store PredictionStore) *Recorder {
	return &Recorder{store: store}
}

// Record thresholds the probability, assembles the record and persists it.
// The record is only handed back after the write went through, so callers
// never return an unpersisted result.
func (r *Recorder) Record(ctx context.Context, probability float32) (datastructures.PredictionRecord, error) {
	var record datastructures.PredictionRecord

	//hard-coded decision boundary the model was calibrated against
	if probability > 0.5 {
		record.Result = datastructures.LabelCancer
		record.Suggestion = datastructures.SuggestionCancer
	} else {
		record.Result = datastructures.LabelNonCancer
		record.Suggestion = datastructures.SuggestionNonCancer
	}

	id, err := uuid.NewV4()
	if err != nil {
		return record, err
	}
	record.Id = id.String()
	record.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := r.store.Save(ctx, record); err != nil {
		log.Debug("[Recorder] Couldn't save prediction: ", err.Error())
		return record, err
	}

	return record, nil
}
