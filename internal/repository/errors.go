package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInsufficientSeats is returned when a conditional seat decrement
	// would take a ride below zero available seats.
	ErrInsufficientSeats = errors.New("insufficient seats")
)
