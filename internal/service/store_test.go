package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/notification"
	"github.com/electrosur/storefront/internal/order"
	"github.com/electrosur/storefront/internal/repository"
)

// fakeStore is an in-memory repository.OrderStore so service behavior is
// testable without a database. Compare-and-swap semantics mirror the SQL:
// a mutation only lands when the row still carries the expected status.
type fakeStore struct {
	orders   map[uuid.UUID]repository.Order
	items    map[uuid.UUID][]repository.OrderItem
	products map[uuid.UUID]repository.Product
	users    map[uuid.UUID]repository.User
	codeSeq  int64
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   map[uuid.UUID]repository.Order{},
		items:    map[uuid.UUID][]repository.OrderItem{},
		products: map[uuid.UUID]repository.Product{},
		users:    map[uuid.UUID]repository.User{},
	}
}

func (f *fakeStore) seedUser(role order.Role) repository.User {
	u := repository.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "user@example.com",
		Role:  string(role),
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) seedProduct(price string, currency money.Currency, stock int32) repository.Product {
	p := repository.Product{
		ID:        uuid.New(),
		Name:      "disyuntor diferencial 25A",
		Sku:       "DIS-25-" + uuid.NewString()[:8],
		PriceBase: repository.NumericFromDecimal(decimal.RequireFromString(price)),
		Currency:  string(currency),
		Stock:     stock,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) seedOrder(clientID uuid.UUID, status order.Status) repository.Order {
	o := repository.Order{
		ID:        uuid.New(),
		OrderType: string(order.TypeOrder),
		Status:    string(status),
		Currency:  string(money.ARS),
		ClientID:  clientID,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeStore) seedItem(orderID uuid.UUID, product repository.Product, qty int32) repository.OrderItem {
	item := repository.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: product.ID,
		Name:      product.Name,
		Sku:       product.Sku,
		Quantity:  qty,
		UnitPrice: product.PriceBase,
		TaxRate:   product.TaxRate,
		Currency:  product.Currency,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.items[orderID] = append(f.items[orderID], item)
	return item
}

func (f *fakeStore) InsertDraftOrder(
	_ context.Context,
	arg repository.InsertDraftOrderParams,
) (repository.Order, error) {
	if f.failWith != nil {
		return repository.Order{}, f.failWith
	}
	o := repository.Order{
		ID:        arg.ID,
		OrderType: arg.OrderType,
		Status:    string(order.StatusDraft),
		Currency:  arg.Currency,
		ClientID:  arg.ClientID,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) FindDraftOrderByClient(
	_ context.Context,
	clientID uuid.UUID,
) (repository.Order, error) {
	if f.failWith != nil {
		return repository.Order{}, f.failWith
	}
	drafts := []repository.Order{}
	for _, o := range f.orders {
		if o.ClientID == clientID && o.Status == string(order.StatusDraft) {
			drafts = append(drafts, o)
		}
	}
	if len(drafts) == 0 {
		return repository.Order{}, pgx.ErrNoRows
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.Time.After(drafts[j].CreatedAt.Time)
	})
	return drafts[0], nil
}

func (f *fakeStore) FindOrderById(_ context.Context, id uuid.UUID) (repository.Order, error) {
	if f.failWith != nil {
		return repository.Order{}, f.failWith
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) FindOrdersByClient(
	_ context.Context,
	clientID uuid.UUID,
) ([]repository.Order, error) {
	orders := []repository.Order{}
	for _, o := range f.orders {
		if o.ClientID == clientID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeStore) FindOrdersBySeller(
	_ context.Context,
	sellerID uuid.UUID,
) ([]repository.Order, error) {
	orders := []repository.Order{}
	for _, o := range f.orders {
		if o.SellerID.Valid && o.SellerID.UUID == sellerID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeStore) FindAllOrders(_ context.Context) ([]repository.Order, error) {
	orders := []repository.Order{}
	for _, o := range f.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (f *fakeStore) SubmitOrder(
	_ context.Context,
	arg repository.SubmitOrderParams,
) (int64, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != string(order.StatusDraft) {
		return 0, nil
	}
	o.Status = string(order.StatusSubmitted)
	o.Code = pgtype.Text{String: arg.Code, Valid: true}
	o.Subtotal = arg.Subtotal
	o.TaxTotal = arg.TaxTotal
	o.Total = arg.Total
	o.Currency = arg.Currency
	o.SubmittedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	f.orders[arg.ID] = o
	return 1, nil
}

func (f *fakeStore) UpdateOrderStatus(
	_ context.Context,
	arg repository.UpdateOrderStatusParams,
) (int64, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != arg.FromStatus {
		return 0, nil
	}
	o.Status = arg.ToStatus
	f.orders[arg.ID] = o
	return 1, nil
}

func (f *fakeStore) AssignOrderSeller(
	_ context.Context,
	arg repository.AssignOrderSellerParams,
) (int64, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != string(order.StatusApproved) {
		return 0, nil
	}
	o.Status = string(order.StatusAssigned)
	o.SellerID = uuid.NullUUID{UUID: arg.SellerID, Valid: true}
	f.orders[arg.ID] = o
	return 1, nil
}

func (f *fakeStore) NextOrderCode(_ context.Context) (int64, error) {
	f.codeSeq++
	return f.codeSeq, nil
}

func (f *fakeStore) FindOrderItems(
	_ context.Context,
	orderID uuid.UUID,
) ([]repository.OrderItem, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return append([]repository.OrderItem{}, f.items[orderID]...), nil
}

func (f *fakeStore) FindOrderItemById(
	_ context.Context,
	arg repository.FindOrderItemByIdParams,
) (repository.OrderItem, error) {
	for _, item := range f.items[arg.OrderID] {
		if item.ID == arg.ID {
			return item, nil
		}
	}
	return repository.OrderItem{}, pgx.ErrNoRows
}

func (f *fakeStore) UpsertOrderItem(
	_ context.Context,
	arg repository.UpsertOrderItemParams,
) (repository.OrderItem, error) {
	for i, item := range f.items[arg.OrderID] {
		if item.ProductID == arg.ProductID {
			item.Quantity += arg.Quantity
			f.items[arg.OrderID][i] = item
			return item, nil
		}
	}
	item := repository.OrderItem{
		ID:        arg.ID,
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Name:      arg.Name,
		Sku:       arg.Sku,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
		TaxRate:   arg.TaxRate,
		Currency:  arg.Currency,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.items[arg.OrderID] = append(f.items[arg.OrderID], item)
	return item, nil
}

func (f *fakeStore) UpdateOrderItemQuantity(
	_ context.Context,
	arg repository.UpdateOrderItemQuantityParams,
) (int64, error) {
	for i, item := range f.items[arg.OrderID] {
		if item.ID == arg.ID {
			f.items[arg.OrderID][i].Quantity = arg.Quantity
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) DeleteOrderItem(
	_ context.Context,
	arg repository.DeleteOrderItemParams,
) (int64, error) {
	items := f.items[arg.OrderID]
	for i, item := range items {
		if item.ID == arg.ID {
			f.items[arg.OrderID] = append(items[:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) DeleteOrderItems(_ context.Context, orderID uuid.UUID) error {
	delete(f.items, orderID)
	return nil
}

func (f *fakeStore) InsertOrderItems(
	_ context.Context,
	args []repository.InsertOrderItemParams,
) (int64, error) {
	var inserted int64
	for _, arg := range args {
		f.items[arg.OrderID] = append(f.items[arg.OrderID], repository.OrderItem{
			ID:        arg.ID,
			OrderID:   arg.OrderID,
			ProductID: arg.ProductID,
			Name:      arg.Name,
			Sku:       arg.Sku,
			Quantity:  arg.Quantity,
			UnitPrice: arg.UnitPrice,
			TaxRate:   arg.TaxRate,
			Subtotal:  arg.Subtotal,
			Currency:  arg.Currency,
		})
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) FindProductById(
	_ context.Context,
	id uuid.UUID,
) (repository.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return repository.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) DecreaseProductStock(
	_ context.Context,
	arg repository.ProductStockParams,
) (int64, error) {
	p, ok := f.products[arg.ID]
	if !ok || p.Stock < arg.Quantity {
		return 0, nil
	}
	p.Stock -= arg.Quantity
	f.products[arg.ID] = p
	return 1, nil
}

func (f *fakeStore) IncreaseProductStock(
	_ context.Context,
	arg repository.ProductStockParams,
) error {
	p, ok := f.products[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Stock += arg.Quantity
	f.products[arg.ID] = p
	return nil
}

func (f *fakeStore) FindUserById(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) InTx(c context.Context, fn func(repository.OrderStore) error) error {
	return fn(f)
}

func (f *fakeStore) IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// fakeNotifier records published events and can be told to fail.
type fakeNotifier struct {
	events []string
	err    error
}

func (f *fakeNotifier) Publish(_ context.Context, event notification.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event.Event)
	return nil
}
