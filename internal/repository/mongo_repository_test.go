package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func lamp(qty int) domain.CartItem {
	return domain.CartItem{ProductID: "A", Name: "Lamp", UnitPrice: decimal.RequireFromString("10.00"), Quantity: qty}
}

func mug(qty int) domain.CartItem {
	return domain.CartItem{ProductID: "B", Name: "Mug", UnitPrice: decimal.RequireFromString("5.50"), Quantity: qty}
}

func TestMongoCart(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoCartRepository(db)
	ctx := context.Background()

	t.Run("get missing cart", func(t *testing.T) {
		cart, err := repo.GetCart(ctx, "nonexistent")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.Nil(t, cart)
	})

	t.Run("add item creates cart", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-add", lamp(3)))

		cart, err := repo.GetCart(ctx, "u-add")
		require.NoError(t, err)
		assert.Equal(t, "u-add", cart.UserID)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
		assert.False(t, cart.CreatedAt.IsZero())
	})

	t.Run("add existing item sums quantity", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-sum", lamp(2)))
		require.NoError(t, repo.AddItem(ctx, "u-sum", mug(1)))
		require.NoError(t, repo.AddItem(ctx, "u-sum", lamp(4)))

		cart, err := repo.GetCart(ctx, "u-sum")
		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, "A", cart.Items[0].ProductID)
		assert.Equal(t, 6, cart.Items[0].Quantity)
		assert.Equal(t, 1, cart.Items[1].Quantity)
	})

	t.Run("concurrent adds keep one line", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.AddItem(ctx, "u-race", mug(1)))
			}()
		}
		wg.Wait()

		cart, err := repo.GetCart(ctx, "u-race")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("upsert replaces items and keeps created_at", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-upsert", lamp(1)))
		before, err := repo.GetCart(ctx, "u-upsert")
		require.NoError(t, err)

		before.Items = []domain.CartItem{mug(7)}
		require.NoError(t, repo.UpsertCart(ctx, before))

		after, err := repo.GetCart(ctx, "u-upsert")
		require.NoError(t, err)
		require.Len(t, after.Items, 1)
		assert.Equal(t, "B", after.Items[0].ProductID)
		assert.Equal(t, 7, after.Items[0].Quantity)
		assert.WithinDuration(t, before.CreatedAt, after.CreatedAt, time.Millisecond)
	})

	t.Run("upsert creates cart", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{UserID: "u-new", Items: []domain.CartItem{lamp(3), mug(3)}}))

		cart, err := repo.GetCart(ctx, "u-new")
		require.NoError(t, err)
		assert.Len(t, cart.Items, 2)
	})

	t.Run("upsert empty items", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{UserID: "u-empty"}))

		cart, err := repo.GetCart(ctx, "u-empty")
		require.NoError(t, err)
		assert.NotNil(t, cart.Items)
		assert.Empty(t, cart.Items)
	})

	t.Run("update quantity", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-qty", lamp(1)))
		require.NoError(t, repo.UpdateItemQuantity(ctx, "u-qty", "A", 9))

		cart, err := repo.GetCart(ctx, "u-qty")
		require.NoError(t, err)
		assert.Equal(t, 9, cart.Items[0].Quantity)

		err = repo.UpdateItemQuantity(ctx, "u-qty", "missing", 2)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("remove item", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-rm", lamp(1)))
		require.NoError(t, repo.AddItem(ctx, "u-rm", mug(1)))
		require.NoError(t, repo.RemoveItem(ctx, "u-rm", "A"))

		cart, err := repo.GetCart(ctx, "u-rm")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "B", cart.Items[0].ProductID)

		assert.ErrorIs(t, repo.RemoveItem(ctx, "nobody", "A"), ErrCartNotFound)
	})

	t.Run("remove ordered items keeps later additions", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-order", lamp(2)))
		// added after checkout read the cart
		require.NoError(t, repo.AddItem(ctx, "u-order", lamp(1)))
		require.NoError(t, repo.AddItem(ctx, "u-order", mug(1)))

		lines := []domain.OrderedLine{{ProductID: "A", Quantity: 2}}
		require.NoError(t, repo.RemoveOrderedItems(ctx, "u-order", "o-1", lines))

		cart, err := repo.GetCart(ctx, "u-order")
		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, 1, cart.Items[0].Quantity)
		assert.Equal(t, "B", cart.Items[1].ProductID)

		// redelivery of the same order
		require.NoError(t, repo.RemoveOrderedItems(ctx, "u-order", "o-1", lines))
		cart, err = repo.GetCart(ctx, "u-order")
		require.NoError(t, err)
		assert.Len(t, cart.Items, 2)
		assert.Equal(t, 1, cart.Items[0].Quantity)
	})

	t.Run("remove ordered items empties cart", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-all", lamp(2)))
		require.NoError(t, repo.AddItem(ctx, "u-all", mug(1)))

		lines := []domain.OrderedLine{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 1}}
		require.NoError(t, repo.RemoveOrderedItems(ctx, "u-all", "o-2", lines))

		cart, err := repo.GetCart(ctx, "u-all")
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Contains(t, cart.AppliedOrders, "o-2")

		assert.NoError(t, repo.RemoveOrderedItems(ctx, "nobody", "o-3", lines))
	})

	t.Run("delete cart", func(t *testing.T) {
		require.NoError(t, repo.AddItem(ctx, "u-del", lamp(1)))
		require.NoError(t, repo.DeleteCart(ctx, "u-del"))

		_, err := repo.GetCart(ctx, "u-del")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.ErrorIs(t, repo.DeleteCart(ctx, "u-del"), ErrCartNotFound)
	})
}

func newTestOrder(userID string, createdAt time.Time) *domain.Order {
	items, total := domain.SnapshotItems([]domain.CartItem{lamp(2), mug(1)})
	return &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: "1 Main St",
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestMongoOrders(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoOrderRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := newTestOrder("u-1", base.Add(-time.Hour))
	newer := newTestOrder("u-1", base)
	other := newTestOrder("u-2", base.Add(-30*time.Minute))
	for _, o := range []*domain.Order{older, newer, other} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetOrderByID(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.UserID)
		assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25.50")), "got %s", got.TotalAmount)
		assert.Equal(t, domain.OrderStatusPending, got.Status)
		require.Len(t, got.Items, 2)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetOrderByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("list by owner newest first", func(t *testing.T) {
		orders, err := repo.ListOrdersByUserID(ctx, "u-1")
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, newer.ID, orders[0].ID)
		assert.Equal(t, older.ID, orders[1].ID)
	})

	t.Run("list by owner without orders", func(t *testing.T) {
		orders, err := repo.ListOrdersByUserID(ctx, "u-none")
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("list all newest first", func(t *testing.T) {
		orders, err := repo.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, []string{newer.ID, other.ID, older.ID}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
	})

	t.Run("update status", func(t *testing.T) {
		updated, err := repo.UpdateOrderStatus(ctx, older.ID, domain.OrderStatusShipped)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusShipped, updated.Status)
		assert.True(t, updated.UpdatedAt.After(older.UpdatedAt))

		got, err := repo.GetOrderByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusShipped, got.Status)
		assert.Equal(t, older.ShippingAddress, got.ShippingAddress)
	})

	t.Run("update missing", func(t *testing.T) {
		_, err := repo.UpdateOrderStatus(ctx, uuid.NewString(), domain.OrderStatusDelivered)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestMongoUsers(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoUserRepository(db)
	ctx := context.Background()

	alice := &domain.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	bob := &domain.User{ID: uuid.NewString(), Name: "Bob", Email: "bob@example.com", PasswordHash: "h", IsAdmin: true, CreatedAt: time.Now().UTC()}

	hasAdmin, err := repo.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	require.NoError(t, repo.CreateUser(ctx, alice))
	require.NoError(t, repo.CreateUser(ctx, bob))

	t.Run("duplicate email", func(t *testing.T) {
		dup := &domain.User{ID: uuid.NewString(), Name: "Other", Email: "alice@example.com"}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), ErrDuplicateEmail)
	})

	t.Run("lookup", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
		assert.True(t, got.IsAdmin)

		got, err = repo.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)

		_, err = repo.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("batch lookup skips unknown ids", func(t *testing.T) {
		users, err := repo.GetUsersByIDs(ctx, []string{alice.ID, "missing", bob.ID})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "alice@example.com", users[alice.ID].Email)
	})

	t.Run("has admin", func(t *testing.T) {
		hasAdmin, err := repo.HasAdmin(ctx)
		require.NoError(t, err)
		assert.True(t, hasAdmin)
	})
}
