package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/money"
)

type fakeStorage struct {
	entries  map[string][]byte
	events   [][]byte
	loadErr  error
	saveErr  error
	delErr   error
	notifErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{entries: map[string][]byte{}}
}

func (f *fakeStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	payload, ok := f.entries[key]
	return payload, ok, nil
}

func (f *fakeStorage) Save(_ context.Context, key string, payload []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries[key] = payload
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeStorage) Notify(_ context.Context, _ string, payload []byte) error {
	if f.notifErr != nil {
		return f.notifErr
	}
	f.events = append(f.events, payload)
	return nil
}

func testProduct(price string) Product {
	return Product{
		ID:       uuid.New(),
		Name:     "termica bipolar 16A",
		SKU:      "TERM-16",
		Price:    decimal.RequireFromString(price),
		Currency: money.ARS,
	}
}

func TestLocalStoreAddLine(t *testing.T) {
	c := context.Background()

	t.Run("given new product should append a line", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())
		product := testProduct("1500")

		err := store.AddLine(c, product, 2)
		assert.NoError(t, err)

		lines, err := store.Lines(c)
		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, int32(2), lines[0].Quantity)
		assert.Equal(t, product.ID, lines[0].ProductID)
	})

	t.Run("given same product twice should merge quantities", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())
		product := testProduct("1500")

		assert.NoError(t, store.AddLine(c, product, 2))
		assert.NoError(t, store.AddLine(c, product, 3))

		lines, _ := store.Lines(c)
		assert.Len(t, lines, 1)
		assert.Equal(t, int32(5), lines[0].Quantity)
	})

	t.Run("given reversed add order should total the same quantity", func(t *testing.T) {
		product := testProduct("1500")

		first := NewLocalStore(newFakeStorage(), uuid.NewString())
		assert.NoError(t, first.AddLine(c, product, 2))
		assert.NoError(t, first.AddLine(c, product, 3))

		second := NewLocalStore(newFakeStorage(), uuid.NewString())
		assert.NoError(t, second.AddLine(c, product, 3))
		assert.NoError(t, second.AddLine(c, product, 2))

		firstLines, _ := first.Lines(c)
		secondLines, _ := second.Lines(c)
		assert.Equal(t, firstLines[0].Quantity, secondLines[0].Quantity)
	})

	t.Run("given garbage quantity should clamp to one", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())

		assert.NoError(t, store.AddLine(c, testProduct("10"), "abc"))
		assert.NoError(t, store.AddLine(c, testProduct("10"), -5))
		assert.NoError(t, store.AddLine(c, testProduct("10"), nil))

		lines, _ := store.Lines(c)
		assert.Len(t, lines, 3)
		for _, l := range lines {
			assert.Equal(t, int32(1), l.Quantity)
		}
	})

	t.Run("given numeric string quantity should parse it", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())

		assert.NoError(t, store.AddLine(c, testProduct("10"), "4"))

		lines, _ := store.Lines(c)
		assert.Equal(t, int32(4), lines[0].Quantity)
	})

	t.Run("given unreachable storage should surface unavailable", func(t *testing.T) {
		storage := newFakeStorage()
		storage.saveErr = errors.New("connection refused")
		store := NewLocalStore(storage, uuid.NewString())

		err := store.AddLine(c, testProduct("10"), 1)
		assert.ErrorIs(t, err, inErrors.ErrCartUnavailable)
	})
}

func TestLocalStoreSetQuantity(t *testing.T) {
	c := context.Background()

	t.Run("given existing line should replace quantity", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())
		product := testProduct("10")
		assert.NoError(t, store.AddLine(c, product, 2))

		err := store.SetQuantity(c, product.ID.String(), 7)
		assert.NoError(t, err)

		lines, _ := store.Lines(c)
		assert.Equal(t, int32(7), lines[0].Quantity)
	})

	t.Run("given quantity zero or below should clamp to one not remove", func(t *testing.T) {
		for _, q := range []interface{}{0, -3, "-10"} {
			store := NewLocalStore(newFakeStorage(), uuid.NewString())
			product := testProduct("10")
			assert.NoError(t, store.AddLine(c, product, 2))

			err := store.SetQuantity(c, product.ID.String(), q)
			assert.NoError(t, err)

			lines, _ := store.Lines(c)
			assert.Len(t, lines, 1)
			assert.Equal(t, int32(1), lines[0].Quantity, "quantity=%v", q)
		}
	})

	t.Run("given unknown line should return not found", func(t *testing.T) {
		store := NewLocalStore(newFakeStorage(), uuid.NewString())
		err := store.SetQuantity(c, uuid.NewString(), 1)
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)
	})
}

func TestLocalStoreRemoveLine(t *testing.T) {
	c := context.Background()
	store := NewLocalStore(newFakeStorage(), uuid.NewString())
	first := testProduct("10")
	second := testProduct("20")
	assert.NoError(t, store.AddLine(c, first, 1))
	assert.NoError(t, store.AddLine(c, second, 1))

	assert.NoError(t, store.RemoveLine(c, first.ID.String()))

	lines, _ := store.Lines(c)
	assert.Len(t, lines, 1)
	assert.Equal(t, second.ID, lines[0].ProductID)
}

func TestLocalStoreClear(t *testing.T) {
	c := context.Background()
	storage := newFakeStorage()
	store := NewLocalStore(storage, uuid.NewString())
	assert.NoError(t, store.AddLine(c, testProduct("10"), 1))

	assert.NoError(t, store.Clear(c))

	lines, _ := store.Lines(c)
	assert.Empty(t, lines)
	assert.Empty(t, storage.entries)
}

func TestLocalStoreDegradesToEmptyCart(t *testing.T) {
	c := context.Background()

	t.Run("given unreachable storage reads should answer empty", func(t *testing.T) {
		storage := newFakeStorage()
		storage.loadErr = errors.New("connection refused")
		store := NewLocalStore(storage, uuid.NewString())

		lines, err := store.Lines(c)
		assert.NoError(t, err)
		assert.Empty(t, lines)

		totals, err := store.Totals(c)
		assert.NoError(t, err)
		assert.True(t, totals.Subtotal.IsZero())
	})

	t.Run("given corrupt entry reads should answer empty", func(t *testing.T) {
		storage := newFakeStorage()
		store := NewLocalStore(storage, "session-1")
		storage.entries["storefront:cart:session-1"] = []byte("{not json")

		lines, err := store.Lines(c)
		assert.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestSumTotals(t *testing.T) {
	lines := []Line{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("99.99")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
	}
	totals := SumTotals(lines)
	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("299.98")),
		"subtotal=%s", totals.Subtotal)
}
