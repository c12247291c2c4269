package ordering_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventphoto-backend/internal/ordering"
)

// memStore is an in-memory ordering.Store for exercising the sequence
// algorithms without a database.
type memStore struct {
	parents   map[uuid.UUID]uuid.UUID
	positions map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{
		parents:   make(map[uuid.UUID]uuid.UUID),
		positions: make(map[uuid.UUID]int),
	}
}

func (m *memStore) add(parentID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.parents[id] = parentID
	m.positions[id] = m.maxFor(parentID) + 1
	return id
}

func (m *memStore) maxFor(parentID uuid.UUID) int {
	max := 0
	for id, p := range m.parents {
		if p == parentID && m.positions[id] > max {
			max = m.positions[id]
		}
	}
	return max
}

func (m *memStore) Item(_ context.Context, itemID uuid.UUID) (uuid.UUID, int, error) {
	parentID, ok := m.parents[itemID]
	if !ok {
		return uuid.Nil, 0, ordering.ErrNotFound
	}
	return parentID, m.positions[itemID], nil
}

func (m *memStore) Count(_ context.Context, parentID uuid.UUID) (int, error) {
	count := 0
	for _, p := range m.parents {
		if p == parentID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) MaxPosition(_ context.Context, parentID uuid.UUID) (int, error) {
	return m.maxFor(parentID), nil
}

func (m *memStore) ShiftRange(_ context.Context, parentID uuid.UUID, lo, hi, delta int) error {
	for id, p := range m.parents {
		if p == parentID && m.positions[id] >= lo && m.positions[id] <= hi {
			m.positions[id] += delta
		}
	}
	return nil
}

func (m *memStore) SetPosition(_ context.Context, itemID uuid.UUID, position int) error {
	m.positions[itemID] = position
	return nil
}

func (m *memStore) Delete(_ context.Context, itemID uuid.UUID) error {
	if _, ok := m.parents[itemID]; !ok {
		return ordering.ErrNotFound
	}
	delete(m.parents, itemID)
	delete(m.positions, itemID)
	return nil
}

// positionsOf returns the sorted positions under a parent.
func (m *memStore) positionsOf(parentID uuid.UUID) []int {
	var out []int
	for id, p := range m.parents {
		if p == parentID {
			out = append(out, m.positions[id])
		}
	}
	sort.Ints(out)
	return out
}

func TestNextPosition_EmptyParent(t *testing.T) {
	store := newMemStore()
	pos, err := ordering.NextPosition(context.Background(), store, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestNextPosition_AppendsAfterMax(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	store.add(parent)
	store.add(parent)

	pos, err := ordering.NextPosition(context.Background(), store, parent)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestMove_ShiftsDisplacedRange(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	b := store.add(parent)
	c := store.add(parent)
	d := store.add(parent)

	// A,B,C,D -> move A to 3: B=1, C=2, A=3, D=4
	err := ordering.Move(context.Background(), store, a, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, store.positions[b])
	assert.Equal(t, 2, store.positions[c])
	assert.Equal(t, 3, store.positions[a])
	assert.Equal(t, 4, store.positions[d])
	assert.Equal(t, []int{1, 2, 3, 4}, store.positionsOf(parent))
}

func TestMove_TowardFront(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	b := store.add(parent)
	c := store.add(parent)

	err := ordering.Move(context.Background(), store, c, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, store.positions[c])
	assert.Equal(t, 2, store.positions[a])
	assert.Equal(t, 3, store.positions[b])
}

func TestMove_SamePositionIsNoop(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	b := store.add(parent)

	err := ordering.Move(context.Background(), store, b, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, store.positions[a])
	assert.Equal(t, 2, store.positions[b])
}

func TestMove_PositionOutOfRange(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	store.add(parent)

	err := ordering.Move(context.Background(), store, a, 3)
	assert.ErrorIs(t, err, ordering.ErrInvalidPosition)

	err = ordering.Move(context.Background(), store, a, 0)
	assert.ErrorIs(t, err, ordering.ErrInvalidPosition)
}

func TestMove_UnknownItem(t *testing.T) {
	store := newMemStore()
	err := ordering.Move(context.Background(), store, uuid.New(), 1)
	assert.ErrorIs(t, err, ordering.ErrNotFound)
}

func TestRemove_CompactsSequence(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	b := store.add(parent)
	c := store.add(parent)
	d := store.add(parent)

	err := ordering.Remove(context.Background(), store, b)
	require.NoError(t, err)

	assert.Equal(t, 1, store.positions[a])
	assert.Equal(t, 2, store.positions[c])
	assert.Equal(t, 3, store.positions[d])
	assert.Equal(t, []int{1, 2, 3}, store.positionsOf(parent))
}

func TestRemove_LastItemNeedsNoShift(t *testing.T) {
	store := newMemStore()
	parent := uuid.New()
	a := store.add(parent)
	b := store.add(parent)

	err := ordering.Remove(context.Background(), store, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, store.positionsOf(parent))
	assert.Equal(t, 1, store.positions[a])
}

func TestRemove_UnknownItem(t *testing.T) {
	store := newMemStore()
	err := ordering.Remove(context.Background(), store, uuid.New())
	assert.ErrorIs(t, err, ordering.ErrNotFound)
}

// Density survives arbitrary interleavings of append, move and remove.
func TestSequence_StaysDenseAcrossOperations(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	parent := uuid.New()
	other := uuid.New()

	var items []uuid.UUID
	for i := 0; i < 6; i++ {
		items = append(items, store.add(parent))
	}
	otherItem := store.add(other)

	require.NoError(t, ordering.Move(ctx, store, items[5], 1))
	require.NoError(t, ordering.Remove(ctx, store, items[2]))
	require.NoError(t, ordering.Move(ctx, store, items[0], 5))
	require.NoError(t, ordering.Remove(ctx, store, items[4]))

	assert.Equal(t, []int{1, 2, 3, 4}, store.positionsOf(parent))
	// Operations on one parent never touch another.
	assert.Equal(t, 1, store.positions[otherItem])
}
