package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal/log"
)

// OrderStore is the persistence surface the services program against;
// *Store is the pgx implementation, tests supply fakes.
type OrderStore interface {
	InsertDraftOrder(c context.Context, arg InsertDraftOrderParams) (Order, error)
	FindDraftOrderByClient(c context.Context, clientID uuid.UUID) (Order, error)
	FindOrderById(c context.Context, id uuid.UUID) (Order, error)
	FindOrdersByClient(c context.Context, clientID uuid.UUID) ([]Order, error)
	FindOrdersBySeller(c context.Context, sellerID uuid.UUID) ([]Order, error)
	FindAllOrders(c context.Context) ([]Order, error)
	SubmitOrder(c context.Context, arg SubmitOrderParams) (int64, error)
	UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (int64, error)
	AssignOrderSeller(c context.Context, arg AssignOrderSellerParams) (int64, error)
	NextOrderCode(c context.Context) (int64, error)

	FindOrderItems(c context.Context, orderID uuid.UUID) ([]OrderItem, error)
	FindOrderItemById(c context.Context, arg FindOrderItemByIdParams) (OrderItem, error)
	UpsertOrderItem(c context.Context, arg UpsertOrderItemParams) (OrderItem, error)
	UpdateOrderItemQuantity(c context.Context, arg UpdateOrderItemQuantityParams) (int64, error)
	DeleteOrderItem(c context.Context, arg DeleteOrderItemParams) (int64, error)
	DeleteOrderItems(c context.Context, orderID uuid.UUID) error
	InsertOrderItems(c context.Context, args []InsertOrderItemParams) (int64, error)

	FindProductById(c context.Context, id uuid.UUID) (Product, error)
	DecreaseProductStock(c context.Context, arg ProductStockParams) (int64, error)
	IncreaseProductStock(c context.Context, arg ProductStockParams) error

	FindUserById(c context.Context, id uuid.UUID) (User, error)

	InTx(c context.Context, fn func(OrderStore) error) error
	IsNotFound(err error) bool
}

type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// InTx runs fn against a transactional view of the store. The transaction
// rolls back unless fn returns nil.
func (s *Store) InTx(c context.Context, fn func(OrderStore) error) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store InTx").
		Logger()

	logger.Info().Str(log.KeyProcess, "initializing transaction").Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	err = fn(&Store{Queries: s.Queries.WithTx(tx), pool: s.pool})
	if err != nil {
		return err
	}

	logger.Info().Str(log.KeyProcess, "committing transaction").Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *Store) IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
