package repository

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/reward"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderLine struct {
	ItemID uint64
	Count  int64
}

type OrderFilter struct {
	UserID uint64
	From   *time.Time
	To     *time.Time
	Page   Page
}

type OrderRepository interface {
	// Place debits the user's points, records the order and decrements stock in one
	// transaction. Nothing is written when any check fails.
	Place(ctx context.Context, userID uint64, lines []OrderLine) (*model.PointOrder, error)
	// Cancel restores stock and marks the order CANCEL. The debit is left in the ledger.
	Cancel(ctx context.Context, userID, orderID uint64) (*model.PointOrder, error)
	Delete(ctx context.Context, userID, orderID uint64) error
	List(ctx context.Context, f OrderFilter) ([]model.PointOrder, int64, error)
	SetDB(db *gorm.DB)
}

type orderRepository struct {
	db  atomic.Pointer[gorm.DB]
	now func() time.Time
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	r := &orderRepository{now: time.Now}
	r.db.Store(db)
	return r
}

func (r *orderRepository) Place(ctx context.Context, userID uint64, lines []OrderLine) (*model.PointOrder, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	var order *model.PointOrder
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "user", ID: userID}
			}
			return err
		}
		bal, err := balance(tx, userID)
		if err != nil {
			return err
		}

		ids := make([]uint64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ItemID)
		}
		items, err := lockItems(tx, ids)
		if err != nil {
			return err
		}

		// Duplicate lines for one item are checked against a shared running stock.
		remaining := make(map[uint64]int64, len(items))
		for id, it := range items {
			remaining[id] = it.StockNumber
		}
		priced := make([]reward.OrderLine, 0, len(lines))
		for _, l := range lines {
			it, ok := items[l.ItemID]
			if !ok {
				return &NotFoundError{Entity: "item", ID: l.ItemID}
			}
			if remaining[l.ItemID] < l.Count {
				return &StockError{ItemID: it.ID, ItemName: it.Name}
			}
			remaining[l.ItemID] -= l.Count
			priced = append(priced, reward.OrderLine{Price: it.Price, Count: l.Count})
		}

		total := reward.OrderTotal(priced)
		if bal < total {
			return ErrInsufficientPoints
		}

		debit := model.NewPoint(userID, -total, model.ReasonSpendOrder, "포인트 상품 주문")
		if err := postPoint(tx, debit); err != nil {
			return err
		}

		order = &model.PointOrder{
			UserID:      userID,
			PointID:     debit.ID,
			OrderDate:   r.now(),
			TotalPrice:  total,
			OrderStatus: model.OrderStatusOrder,
		}
		for i, l := range lines {
			order.Items = append(order.Items, model.OrderItem{
				ItemID:     l.ItemID,
				Count:      l.Count,
				OrderPrice: priced[i].Subtotal(),
			})
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for id, left := range remaining {
			status := items[id].SellStatus
			if left == 0 {
				status = model.SellStatusSoldOut
			}
			if err := tx.Model(&model.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
				"stock_number":     left,
				"item_sell_status": status,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockItems row-locks the distinct items among ids in ascending id order and
// returns the ones that exist by id.
func lockItems(tx *gorm.DB, ids []uint64) (map[uint64]*model.Item, error) {
	uniq := make([]uint64, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	var rows []model.Item
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id IN ?", uniq).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make(map[uint64]*model.Item, len(rows))
	for i := range rows {
		items[rows[i].ID] = &rows[i]
	}
	return items, nil
}

func (r *orderRepository) Cancel(ctx context.Context, userID, orderID uint64) (*model.PointOrder, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	var order model.PointOrder
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order", ID: orderID}
			}
			return err
		}
		if order.UserID != userID {
			return ErrNotOwner
		}
		if order.OrderStatus == model.OrderStatusCancel {
			return ErrAlreadyCancelled
		}
		ids := make([]uint64, 0, len(order.Items))
		for _, oi := range order.Items {
			ids = append(ids, oi.ItemID)
		}
		if _, err := lockItems(tx, ids); err != nil {
			return err
		}
		for _, oi := range order.Items {
			if err := tx.Model(&model.Item{}).Where("id = ?", oi.ItemID).Updates(map[string]interface{}{
				"stock_number":     gorm.Expr("stock_number + ?", oi.Count),
				"item_sell_status": model.SellStatusSell,
			}).Error; err != nil {
				return err
			}
		}
		order.OrderStatus = model.OrderStatusCancel
		return tx.Model(&order).Update("order_status", model.OrderStatusCancel).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Delete(ctx context.Context, userID, orderID uint64) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.PointOrder
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order", ID: orderID}
			}
			return err
		}
		if order.UserID != userID {
			return ErrNotOwner
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]model.PointOrder, int64, error) {
	db := r.db.Load()
	if db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		orders []model.PointOrder
		total  int64
	)
	q := db.WithContext(ctx).Model(&model.PointOrder{}).Where("user_id = ?", f.UserID)
	if f.From != nil && f.To != nil {
		q = q.Where("order_date BETWEEN ? AND ?", *f.From, *f.To)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.
		Preload("Items.Item.Images", "rep_img_yn = ?", "Y").
		Order("order_date desc").
		Limit(f.Page.Size).
		Offset(f.Page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}
