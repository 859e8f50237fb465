package availability

import "time"

type TemplateEntry struct {
	DayOfWeek time.Weekday `json:"day_of_week" binding:"min=0,max=6"`
	StartTime string       `json:"start_time" binding:"required"`
	EndTime   string       `json:"end_time" binding:"required"`
}

type SetTemplateRequest struct {
	Entries []TemplateEntry `json:"entries"`
}

type OverrideRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	Reason    string `json:"reason"`
}
