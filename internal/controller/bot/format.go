package bot

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

type statusDisplay struct {
	Emoji string
	Text  string
}

var requestStatusDisplays = map[model.RequestStatus]statusDisplay{
	model.RequestStatusPending:      {"⏳", "waiting for an administrator"},
	model.RequestStatusPendingTutor: {"📥", "waiting for the tutor"},
	model.RequestStatusApproved:     {"✅", "approved"},
	model.RequestStatusDenied:       {"🚫", "denied"},
}

func requestStatusDisplay(status model.RequestStatus) statusDisplay {
	if d, ok := requestStatusDisplays[status]; ok {
		return d
	}
	return statusDisplay{"❓", string(status)}
}

func formatRequest(req *model.TutoringRequest) string {
	d := requestStatusDisplay(req.Status)
	line := fmt.Sprintf("%s #%d course %d, %s", d.Emoji, req.ID, req.CourseID, d.Text)
	if req.Description != nil && *req.Description != "" {
		line += ": " + *req.Description
	}
	if req.Status == model.RequestStatusDenied && req.DeclineReason != nil {
		line += " (" + *req.DeclineReason + ")"
	}
	return line
}

// formatSlot: "Thu 13.03 09:00 - 10:30"
func formatSlot(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s - %s", start.In(loc).Format("Mon 02.01 15:04"), end.In(loc).Format("15:04"))
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006")
}
