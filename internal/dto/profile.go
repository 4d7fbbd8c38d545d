package dto

// UpsertProfileRequest stores the caller's availability profile.
type UpsertProfileRequest struct {
	WeekdayHours       float64 `json:"weekday_hours" validate:"required,gt=0,lte=16"`
	WeekendHours       float64 `json:"weekend_hours" validate:"required,gt=0,lte=16"`
	PreferredStudyTime string  `json:"preferred_study_time" validate:"required,oneof=morning afternoon evening night"`
	TargetDate         string  `json:"target_date" validate:"required"`
}
