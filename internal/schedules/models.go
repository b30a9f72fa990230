package schedules

import "fmt"

// ScheduleResponse lists which weekdays (0=Monday..6=Sunday) are training
// days and which are rest days. A weekday in neither list is undetermined
// and classifies as OFF.
type ScheduleResponse struct {
	OnDays  []int `json:"on_days"`
	OffDays []int `json:"off_days"`
}

// ReplaceScheduleRequest swaps the whole weekly schedule.
type ReplaceScheduleRequest struct {
	OnDays  []int `json:"on_days"`
	OffDays []int `json:"off_days"`
}

func (r *ReplaceScheduleRequest) Validate() error {
	if len(r.OnDays) == 0 && len(r.OffDays) == 0 {
		return fmt.Errorf("at least one weekday designation is required")
	}

	on := make(map[int]bool, len(r.OnDays))
	for _, d := range r.OnDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range 0..6", d)
		}
		on[d] = true
	}
	for _, d := range r.OffDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range 0..6", d)
		}
		if on[d] {
			return fmt.Errorf("weekday %d assigned both ON and OFF", d)
		}
	}
	return nil
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
