package domain

import "time"

// BookedRide links a settled Transaction to a ride for one passenger.
type BookedRide struct {
	ID                 string
	RideID             string
	PassengerID        string
	Seats              int
	PickUp             Coordinates
	Destination        Coordinates
	PickUpAddress      string
	DestinationAddress string
	PickUpDate         string
	PickUpTime         string
	UnitCost           float64
	Distance           float64
	TransactionID      string
	VerificationCode   int
	VehicleType        string
	OverviewPolyline   string
	PassengerName      string
	PassengerImageURL  string
	DriverID           string
	DriverName         string
	DriverImageURL     string
	PastRideID         string
	DriverPastID       string
	CreatedAt          time.Time
}

// ParticipantRole is the side a user took in a ride.
type ParticipantRole string

const (
	RolePassenger ParticipantRole = "passenger"
	RoleDriver    ParticipantRole = "driver"
)

// PastRide is a ride history entry for one participant.
type PastRide struct {
	ID               string
	RideID           string
	UserID           string
	Role             ParticipantRole
	Source           string
	Destination      string
	OverviewPolyline string
	SourceCo         Coordinates
	DestinationCo    Coordinates
	Rating           *float64 // nil until rated
	CreatedAt        time.Time
}
