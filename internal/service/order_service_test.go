package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db    *gorm.DB
	svc   OrderService
	buyer *model.User
	item  *model.Item
}

func newOrderFixture(t *testing.T) orderFixture {
	db := testutil.OpenTestDB(t)
	buyer := seedUser(t, db, "buyer01", model.RoleUser)
	credit(t, db, buyer.ID, 300)
	item := &model.Item{Name: "텀블러", Price: 100, StockNumber: 5, SellStatus: model.SellStatusSell}
	require.NoError(t, db.Create(item).Error)
	return orderFixture{db: db, svc: NewOrderService(repository.NewOrderRepository(db)), buyer: buyer, item: item}
}

func TestOrderPlace_OverBalanceLeavesNoTrace(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Place(context.Background(), f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 4}})
	se := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "보유 포인트가 부족합니다.", se.Message)

	var item model.Item
	require.NoError(t, f.db.First(&item, f.item.ID).Error)
	assert.Equal(t, int64(5), item.StockNumber)
	assert.Equal(t, int64(1), count(t, f.db, &model.Point{}))
	assert.Zero(t, count(t, f.db, &model.PointOrder{}))
	assert.Zero(t, count(t, f.db, &model.OrderItem{}))
}

func TestOrderPlace_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)

	// Two lines for the same item share one stock check.
	_, err := f.svc.Place(context.Background(), f.buyer.ID, []repository.OrderLine{
		{ItemID: f.item.ID, Count: 3},
		{ItemID: f.item.ID, Count: 3},
	})
	se := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "재고 부족: 텀블러", se.Message)
	assert.Zero(t, count(t, f.db, &model.PointOrder{}))
}

func TestOrderPlace_Success(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(200), order.TotalPrice)
	assert.Equal(t, model.OrderStatusOrder, order.OrderStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(200), order.Items[0].OrderPrice)

	var debit model.Point
	require.NoError(t, f.db.First(&debit, order.PointID).Error)
	assert.Equal(t, int64(-200), debit.Delta)
	assert.Equal(t, int64(200), debit.Amount)
	assert.Equal(t, model.ReasonSpendOrder, debit.Reason)
	assert.Equal(t, int64(100), ledgerBalance(t, f.db, f.buyer.ID))

	var item model.Item
	require.NoError(t, f.db.First(&item, f.item.ID).Error)
	assert.Equal(t, int64(3), item.StockNumber)
	assert.Equal(t, model.SellStatusSell, item.SellStatus)
}

func TestOrderPlace_LastUnitMarksSoldOut(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Place(context.Background(), f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 3}})
	require.NoError(t, err)
	credit(t, f.db, f.buyer.ID, 200)
	_, err = f.svc.Place(context.Background(), f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 2}})
	require.NoError(t, err)

	var item model.Item
	require.NoError(t, f.db.First(&item, f.item.ID).Error)
	assert.Zero(t, item.StockNumber)
	assert.Equal(t, model.SellStatusSoldOut, item.SellStatus)
}

func TestOrderPlace_Validation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, f.buyer.ID, nil)
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 0}})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: 9999, Count: 1}})
	requireStatus(t, err, http.StatusNotFound)
}

func TestOrderCancel_RestoresStockButNotPoints(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 2}})
	require.NoError(t, err)

	other := seedUser(t, f.db, "other01", model.RoleUser)
	requireStatus(t, f.svc.Cancel(ctx, other.ID, order.ID), http.StatusForbidden)

	require.NoError(t, f.svc.Cancel(ctx, f.buyer.ID, order.ID))

	var item model.Item
	require.NoError(t, f.db.First(&item, f.item.ID).Error)
	assert.Equal(t, int64(5), item.StockNumber)
	assert.Equal(t, model.SellStatusSell, item.SellStatus)

	var saved model.PointOrder
	require.NoError(t, f.db.First(&saved, order.ID).Error)
	assert.Equal(t, model.OrderStatusCancel, saved.OrderStatus)
	// The debit stays in the ledger.
	assert.Equal(t, int64(100), ledgerBalance(t, f.db, f.buyer.ID))

	requireStatus(t, f.svc.Cancel(ctx, f.buyer.ID, order.ID), http.StatusBadRequest)
	requireStatus(t, f.svc.Cancel(ctx, f.buyer.ID, 9999), http.StatusNotFound)
}

func TestOrderList_FiltersAndPages(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 1}})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, f.buyer.ID, OrderListInput{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, 2, page.Size)

	_, err = f.svc.List(ctx, f.buyer.ID, OrderListInput{StartDate: "2024/01/01", EndDate: "2024-01-02"})
	requireStatus(t, err, http.StatusBadRequest)

	page, err = f.svc.List(ctx, f.buyer.ID, OrderListInput{StartDate: "2000-01-01", EndDate: "2000-01-02"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestOrderDelete_OwnerOnly(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Place(ctx, f.buyer.ID, []repository.OrderLine{{ItemID: f.item.ID, Count: 1}})
	require.NoError(t, err)

	other := seedUser(t, f.db, "other02", model.RoleUser)
	requireStatus(t, f.svc.Delete(ctx, other.ID, order.ID), http.StatusForbidden)

	require.NoError(t, f.svc.Delete(ctx, f.buyer.ID, order.ID))
	assert.Zero(t, count(t, f.db, &model.PointOrder{}))
	assert.Zero(t, count(t, f.db, &model.OrderItem{}))
	requireStatus(t, f.svc.Delete(ctx, f.buyer.ID, order.ID), http.StatusNotFound)
}
