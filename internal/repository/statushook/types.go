package statushook

import "time"

type StageUpdate struct {
	StageID     string     `json:"stage_id"`
	Number      int        `json:"number"`
	Name        string     `json:"name"`
	Class       string     `json:"class"`
	Status      Status     `json:"status"`
	Conclusion  string     `json:"conclusion,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)
