package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/repository"
)

// Booking reserves seats in live classes.
type Booking struct {
	classes LiveClassStore
}

func NewBooking(classes LiveClassStore) *Booking { return &Booking{classes: classes} }

// Book adds userID to the roster of classID.  A user already on the
// roster gets ErrAlreadyBooked even when the class is full.
func (b *Booking) Book(ctx context.Context, userID, classID uint64) error {
	err := b.classes.Book(ctx, classID, userID, func(lc *model.LiveClass) error {
		if lc.Booked(userID) {
			return ErrAlreadyBooked
		}
		if lc.Full() {
			return ErrClassFull
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyBooked), errors.Is(err, ErrClassFull):
		return err
	default:
		return fmt.Errorf("book class %d: %w", classID, err)
	}
}
