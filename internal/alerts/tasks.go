package alerts

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskHotLeadAlert = "leads.hot_alert"

// HotLeadPayload carries the escalation snapshot to the alert worker. It is a
// copy of the lead state at escalation time, so a later re-analysis cannot
// change what the consultant sees.
type HotLeadPayload struct {
	Phone    string  `json:"phone"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Summary  string  `json:"summary"`
}

func NewHotLeadAlertTask(payload HotLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHotLeadAlert, data), nil
}

func ParseHotLeadPayload(task *asynq.Task) (HotLeadPayload, error) {
	var payload HotLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HotLeadPayload{}, err
	}
	return payload, nil
}
