package handler

import "time"

type submitRequest struct {
	Approvers []string `json:"approvers"`
	Strategy  string   `json:"strategy"`
	Reason    string   `json:"reason"`
}

type decisionRequest struct {
	Approve *bool  `json:"approve"`
	Comment string `json:"comment"`
}

type scheduleRequest struct {
	PlannedStart time.Time `json:"planned_start"`
	PlannedEnd   time.Time `json:"planned_end"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}
