package booking

type ClaimSlotRequest struct {
	DoctorID  int64  `json:"doctor_id" binding:"required" validate:"required,gt=0"`
	Date      string `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required" validate:"required,datetime=15:04"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}
