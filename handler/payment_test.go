package handler

import (
	"shop_manager/database"
	"shop_manager/model"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPaymentDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func TestMarkOrderPaidIsSticky(t *testing.T) {
	db := setupPaymentDB(t)
	order := model.Order{
		PublicCode:    "ORD-PAYTEST1",
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodMomo,
		TotalAmount:   500000,
	}
	require.NoError(t, db.Create(&order).Error)

	paid := markOrderPaid("ORD-PAYTEST1")
	require.NotNil(t, paid)
	assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
	assert.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	// Callback trùng lặp là no-op, paid_at giữ nguyên
	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, markOrderPaid("ORD-PAYTEST1"))

	var got model.Order
	require.NoError(t, db.Where("public_code = ?", "ORD-PAYTEST1").First(&got).Error)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, firstPaidAt.Unix(), got.PaidAt.Unix())

	assert.Nil(t, markOrderPaid("ORD-KHONGCO"))
}

func TestMarkOrderPaymentFailedOnlyFromPending(t *testing.T) {
	db := setupPaymentDB(t)
	pending := model.Order{
		PublicCode:    "ORD-PAYTEST2",
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodMomo,
	}
	paid := model.Order{
		PublicCode:    "ORD-PAYTEST3",
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPaid,
		PaymentMethod: model.PaymentMethodMomo,
	}
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Create(&paid).Error)

	markOrderPaymentFailed("ORD-PAYTEST2")
	markOrderPaymentFailed("ORD-PAYTEST3")

	var gotPending model.Order
	require.NoError(t, db.Where("public_code = ?", "ORD-PAYTEST2").First(&gotPending).Error)
	assert.Equal(t, model.PaymentFailed, gotPending.PaymentStatus)

	// Đơn đã PAID không bao giờ bị kéo về FAILED
	var gotPaid model.Order
	require.NoError(t, db.Where("public_code = ?", "ORD-PAYTEST3").First(&gotPaid).Error)
	assert.Equal(t, model.PaymentPaid, gotPaid.PaymentStatus)
}
