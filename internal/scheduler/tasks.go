package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLedgerReconcile = "ledger.reconcile"

type LedgerReconcilePayload struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewLedgerReconcileTask(payload LedgerReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, data), nil
}

func ParseLedgerReconcilePayload(task *asynq.Task) (LedgerReconcilePayload, error) {
	var payload LedgerReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LedgerReconcilePayload{}, err
	}
	return payload, nil
}
