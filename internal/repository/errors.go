package repository

import (
	"errors"
	"fmt"

	"github.com/re-earth/re-earth-api/internal/model"
)

var (
	ErrDBNotReady         = errors.New("database not initialized")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNotOwner           = errors.New("not the owner")
	ErrAlreadyCancelled   = errors.New("already cancelled")
)

// NotFoundError names the missing row so callers can build a precise message.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

type StockError struct {
	ItemID   uint64
	ItemName string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d (%s)", e.ItemID, e.ItemName)
}

type TransitionError struct {
	From model.DonationStatus
	To   model.DonationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}
