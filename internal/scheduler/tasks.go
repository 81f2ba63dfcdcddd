// Package scheduler enqueues and processes deferred tasks via asynq.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCampaignRecycle = "campaign.recycle"

type CampaignRecyclePayload struct {
	CampaignID      string `json:"campaignId"`
	QualificationID string `json:"qualificationId"`
}

func NewCampaignRecycleTask(payload CampaignRecyclePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignRecycle, data), nil
}

func ParseCampaignRecyclePayload(task *asynq.Task) (CampaignRecyclePayload, error) {
	var payload CampaignRecyclePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CampaignRecyclePayload{}, err
	}
	return payload, nil
}
