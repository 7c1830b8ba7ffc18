package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/electrosur/storefront/internal/cart"
	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/order"
)

// fakeCartStorage mirrors the redis-backed cart namespace in memory.
type fakeCartStorage struct {
	entries map[string][]byte
	loadErr error
}

func newFakeCartStorage() *fakeCartStorage {
	return &fakeCartStorage{entries: map[string][]byte{}}
}

func (f *fakeCartStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	payload, ok := f.entries[key]
	return payload, ok, nil
}

func (f *fakeCartStorage) Save(_ context.Context, key string, payload []byte) error {
	f.entries[key] = payload
	return nil
}

func (f *fakeCartStorage) Delete(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeCartStorage) Notify(_ context.Context, _ string, _ []byte) error {
	return nil
}

func TestResolve(t *testing.T) {
	c := context.Background()

	t.Run("given no actor should resolve the local store", func(t *testing.T) {
		svc := NewCartService(newFakeStore(), newFakeCartStorage())
		store := svc.Resolve(c, nil, uuid.NewString())
		assert.IsType(t, &cart.LocalStore{}, store)
	})

	t.Run("given actor with draft should resolve the server store", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		repo.seedOrder(client.ID, order.StatusDraft)
		svc := NewCartService(repo, newFakeCartStorage())

		actor := order.Actor{ID: client.ID, Role: order.RoleClient}
		store := svc.Resolve(c, &actor, uuid.NewString())
		assert.IsType(t, &serverStore{}, store)
	})

	t.Run("given actor without draft should fall back to local", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		svc := NewCartService(repo, newFakeCartStorage())

		actor := order.Actor{ID: client.ID, Role: order.RoleClient}
		store := svc.Resolve(c, &actor, uuid.NewString())
		assert.IsType(t, &cart.LocalStore{}, store)
	})
}

func TestServerCart(t *testing.T) {
	c := context.Background()

	t.Run("given first use should create a draft order", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		svc := NewCartService(repo, newFakeCartStorage())
		actor := order.Actor{ID: client.ID, Role: order.RoleClient}

		_, err := svc.ServerCart(c, actor)
		assert.NoError(t, err)

		draft, err := repo.FindDraftOrderByClient(c, client.ID)
		assert.NoError(t, err)
		assert.Equal(t, string(order.StatusDraft), draft.Status)
	})

	t.Run("given repeated use should reuse the same draft", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		svc := NewCartService(repo, newFakeCartStorage())
		actor := order.Actor{ID: client.ID, Role: order.RoleClient}

		_, err := svc.ServerCart(c, actor)
		assert.NoError(t, err)
		_, err = svc.ServerCart(c, actor)
		assert.NoError(t, err)

		count := 0
		for _, o := range repo.orders {
			if o.ClientID == client.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestServerStoreOperations(t *testing.T) {
	c := context.Background()

	repo := newFakeStore()
	client := repo.seedUser(order.RoleClient)
	product := repo.seedProduct("150", money.ARS, 100)
	svc := NewCartService(repo, newFakeCartStorage())
	actor := order.Actor{ID: client.ID, Role: order.RoleClient}

	store, err := svc.ServerCart(c, actor)
	assert.NoError(t, err)

	t.Run("given product added twice should merge into one line", func(t *testing.T) {
		assert.NoError(t, svc.AddProduct(c, store, product.ID, 2))
		assert.NoError(t, svc.AddProduct(c, store, product.ID, "3"))

		lines, err := store.Lines(c)
		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, int32(5), lines[0].Quantity)
	})

	t.Run("given set quantity should replace not merge", func(t *testing.T) {
		lines, _ := store.Lines(c)
		assert.NoError(t, store.SetQuantity(c, lines[0].Key, 1))

		lines, _ = store.Lines(c)
		assert.Equal(t, int32(1), lines[0].Quantity)
	})

	t.Run("given unknown item should answer not found", func(t *testing.T) {
		err := store.SetQuantity(c, uuid.NewString(), 1)
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)

		err = store.RemoveLine(c, uuid.NewString())
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)
	})

	t.Run("given unknown product should answer not found", func(t *testing.T) {
		err := svc.AddProduct(c, store, uuid.New(), 1)
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)
	})

	t.Run("given remove should drop the line", func(t *testing.T) {
		lines, _ := store.Lines(c)
		assert.NoError(t, store.RemoveLine(c, lines[0].Key))

		lines, _ = store.Lines(c)
		assert.Empty(t, lines)
	})
}

func TestMigrateLocal(t *testing.T) {
	c := context.Background()

	t.Run("given local lines should merge into the draft and clear local", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		product := repo.seedProduct("100", money.ARS, 50)
		storage := newFakeCartStorage()
		svc := NewCartService(repo, storage)
		actor := order.Actor{ID: client.ID, Role: order.RoleClient}

		sessionId := uuid.NewString()
		local := cart.NewLocalStore(storage, sessionId)
		cartProduct := repo.products[product.ID].CartProduct()
		assert.NoError(t, local.AddLine(c, cartProduct, 2))

		server, err := svc.MigrateLocal(c, actor, sessionId)
		assert.NoError(t, err)

		lines, err := server.Lines(c)
		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, int32(2), lines[0].Quantity)

		localLines, err := local.Lines(c)
		assert.NoError(t, err)
		assert.Empty(t, localLines)
	})

	t.Run("given draft already has the product should sum quantities", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		product := repo.seedProduct("100", money.ARS, 50)
		draft := repo.seedOrder(client.ID, order.StatusDraft)
		repo.seedItem(draft.ID, repo.products[product.ID], 3)

		storage := newFakeCartStorage()
		svc := NewCartService(repo, storage)
		actor := order.Actor{ID: client.ID, Role: order.RoleClient}

		sessionId := uuid.NewString()
		local := cart.NewLocalStore(storage, sessionId)
		assert.NoError(t, local.AddLine(c, repo.products[product.ID].CartProduct(), 2))

		server, err := svc.MigrateLocal(c, actor, sessionId)
		assert.NoError(t, err)

		lines, err := server.Lines(c)
		assert.NoError(t, err)
		assert.Len(t, lines, 1)
		assert.Equal(t, int32(5), lines[0].Quantity)
	})

	t.Run("given empty local cart should still resolve the server cart", func(t *testing.T) {
		repo := newFakeStore()
		client := repo.seedUser(order.RoleClient)
		svc := NewCartService(repo, newFakeCartStorage())
		actor := order.Actor{ID: client.ID, Role: order.RoleClient}

		server, err := svc.MigrateLocal(c, actor, uuid.NewString())
		assert.NoError(t, err)

		lines, err := server.Lines(c)
		assert.NoError(t, err)
		assert.Empty(t, lines)
	})
}
