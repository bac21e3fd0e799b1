package domain

// Coordinates is a point on the map.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AvailableRide is a ride offered by a driver with seats still for sale.
type AvailableRide struct {
	ID               string
	DriverID         string
	AvailableSeats   int // never negative
	VehicleType      string
	OverviewPolyline string
	DriverPastRideID string // driver's own history entry for this ride
}

// HasSeats reports whether the ride can still take the given number of seats.
func (r *AvailableRide) HasSeats(seats int) bool {
	return seats > 0 && r.AvailableSeats >= seats
}
