// Package ordering maintains a dense, 1-based position sequence for items
// sharing a parent scope (media under a member). After every committed
// operation the positions under one parent are exactly {1..count}.
package ordering

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrInvalidPosition = errors.New("position out of range")
)

// Store is the slice of persistence a sequence operation needs. All calls
// made within one operation must be applied atomically by the caller
// (the postgres adapter runs them inside a single transaction holding a
// parent-scoped lock).
type Store interface {
	// Item returns the parent scope and current position of an item.
	Item(ctx context.Context, itemID uuid.UUID) (parentID uuid.UUID, position int, err error)
	// Count returns the number of items under a parent.
	Count(ctx context.Context, parentID uuid.UUID) (int, error)
	// MaxPosition returns the highest position under a parent, 0 when empty.
	MaxPosition(ctx context.Context, parentID uuid.UUID) (int, error)
	// ShiftRange adds delta to every position in [lo, hi] under a parent.
	ShiftRange(ctx context.Context, parentID uuid.UUID, lo, hi, delta int) error
	// SetPosition assigns a position to one item.
	SetPosition(ctx context.Context, itemID uuid.UUID, position int) error
	// Delete removes one item.
	Delete(ctx context.Context, itemID uuid.UUID) error
}

// NextPosition returns the position a new item under parentID must take:
// one past the current maximum.
func NextPosition(ctx context.Context, s Store, parentID uuid.UUID) (int, error) {
	max, err := s.MaxPosition(ctx, parentID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Move places an item at newPosition, shifting every item between its old
// and new slot by one so the sequence stays dense. Moving an item onto its
// current position is a no-op.
func Move(ctx context.Context, s Store, itemID uuid.UUID, newPosition int) error {
	parentID, oldPosition, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}

	if newPosition == oldPosition {
		return nil
	}

	count, err := s.Count(ctx, parentID)
	if err != nil {
		return err
	}
	if newPosition < 1 || newPosition > count {
		return ErrInvalidPosition
	}

	// Shift the displaced range toward the vacated slot, then drop the
	// item into place. Both writes commit together.
	if newPosition > oldPosition {
		err = s.ShiftRange(ctx, parentID, oldPosition+1, newPosition, -1)
	} else {
		err = s.ShiftRange(ctx, parentID, newPosition, oldPosition-1, +1)
	}
	if err != nil {
		return err
	}

	return s.SetPosition(ctx, itemID, newPosition)
}

// Remove deletes an item and closes the gap it leaves by decrementing every
// higher position under the same parent.
func Remove(ctx context.Context, s Store, itemID uuid.UUID) error {
	parentID, position, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}

	max, err := s.MaxPosition(ctx, parentID)
	if err != nil {
		return err
	}

	if err := s.Delete(ctx, itemID); err != nil {
		return err
	}

	if position < max {
		return s.ShiftRange(ctx, parentID, position+1, max, -1)
	}
	return nil
}
