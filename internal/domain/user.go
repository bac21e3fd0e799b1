package domain

import "time"

// User is a rider or a driver. Both roles share one record, a driver is
// simply the user referenced by an AvailableRide.
type User struct {
	ID        string
	Name      string
	Email     string
	ImageURL  string
	CreatedAt time.Time
}
