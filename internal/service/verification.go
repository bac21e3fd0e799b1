package service

import "time"

// NewVerificationCode derives the six digit boarding code from the low
// digits of now's unix seconds, scaled up when they have leading zeros.
// Codes are not unique; concurrent bookings may share one.
func NewVerificationCode(now time.Time) int {
	code := int(now.Unix() % 1000000)
	if code < 0 {
		code = -code
	}
	if code == 0 {
		return 100000
	}
	for code < 100000 {
		code *= 10
	}
	return code
}
