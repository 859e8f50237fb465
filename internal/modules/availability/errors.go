package availability

import "errors"

var (
	ErrInvalidTemplate = errors.New("invalid weekly template")
	ErrDoctorNotFound  = errors.New("doctor not found")
)
