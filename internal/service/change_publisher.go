package service

import (
	"context"
	"encoding/json"

	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/logger"
)

// NoteChangesTopic carries every notestore.Change inside the process.
const NoteChangesTopic = "note_changes"

// ChangePublisher is the stores' event sink. It never blocks a store operation
// on delivery; failures are logged and dropped.
type ChangePublisher struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewChangePublisher(publisher IPublisherService, log logger.ILogger) *ChangePublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChangePublisher{publisher: publisher, logger: log}
}

func (p *ChangePublisher) Emit(ctx context.Context, change notestore.Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		p.logger.Error("ChangePublisher", "Failed to marshal change", map[string]interface{}{
			"kind":  change.Kind,
			"error": err,
		})
		return
	}

	if err := p.publisher.Publish(ctx, payload); err != nil {
		p.logger.Warn("ChangePublisher", "Failed to publish change", map[string]interface{}{
			"kind":     change.Kind,
			"owner_id": change.OwnerId,
			"error":    err.Error(),
		})
	}
}
