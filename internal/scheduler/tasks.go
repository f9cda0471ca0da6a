package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskRunOutreachBatch = "outreach:batch.run"

const defaultQueue = "outreach"

type RunOutreachBatchPayload struct {
	BatchID        string `json:"batchId"`
	OrganizationID string `json:"organizationId"`
}

func NewRunOutreachBatchTask(orgID, batchID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(RunOutreachBatchPayload{BatchID: batchID.String(), OrganizationID: orgID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRunOutreachBatch, data), nil
}

// ParseRunOutreachBatchPayload returns the organization and batch ids.
func ParseRunOutreachBatchPayload(task *asynq.Task) (uuid.UUID, uuid.UUID, error) {
	var payload RunOutreachBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("organization id: %w", err)
	}
	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("batch id: %w", err)
	}
	return orgID, batchID, nil
}

func batchTaskID(batchID uuid.UUID) string {
	return "outreach-batch:" + batchID.String()
}
