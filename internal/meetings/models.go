package meetings

import "time"

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Meeting is plain scheduling metadata for a team meeting. Calendar sync and
// video-call integration live outside this service.
type Meeting struct {
	ID                string    `json:"id" bson:"id"`
	TeamID            string    `json:"teamId" bson:"teamId"`
	Title             string    `json:"title" bson:"title"`
	Description       string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy         string    `json:"createdBy" bson:"createdBy"`
	StartTime         time.Time `json:"startTime" bson:"startTime"`
	EndTime           time.Time `json:"endTime" bson:"endTime"`
	Status            Status    `json:"status" bson:"status"`
	MeetingURL        string    `json:"meetingUrl,omitempty" bson:"meetingUrl,omitempty"`
	ParticipantsCount int       `json:"participantsCount" bson:"participantsCount"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}
