package helper

import (
	"shop_manager/model"
	"shop_manager/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPromotion(t *testing.T, db *gorm.DB, promotion model.Promotion) model.Promotion {
	t.Helper()
	if promotion.StartDate.IsZero() {
		promotion.StartDate = time.Now().Add(-time.Hour)
	}
	if promotion.EndDate.IsZero() {
		promotion.EndDate = time.Now().Add(24 * time.Hour)
	}
	require.NoError(t, db.Create(&promotion).Error)
	return promotion
}

func TestValidateAndPricePercentageWithCap(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:        "SALE10",
		Name:        "Giảm 10%",
		Scope:       model.PromotionScopeGlobal,
		Type:        model.PromotionTypePercentage,
		Value:       10,
		MaxDiscount: utils.Ptr(50000.0),
		IsActive:    true,
	})

	// 10% của 1.000.000 là 100.000 nhưng bị chặn trần 50.000
	result, err := ValidateAndPrice(db, "sale10", 1000000, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, result.DiscountAmount)
	assert.False(t, result.AppliedToShipping)

	// Dưới trần thì tính đúng phần trăm
	result, err = ValidateAndPrice(db, "SALE10", 300000, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 30000.0, result.DiscountAmount)
}

func TestValidateAndPriceFixedClampedToSubtotal(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:     "GIAM100K",
		Name:     "Giảm 100k",
		Scope:    model.PromotionScopeGlobal,
		Type:     model.PromotionTypeFixed,
		Value:    100000,
		IsActive: true,
	})

	result, err := ValidateAndPrice(db, "GIAM100K", 60000, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, result.DiscountAmount)
}

func TestValidateAndPriceBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:          "MIN500K",
		Name:          "Đơn từ 500k",
		Scope:         model.PromotionScopeGlobal,
		Type:          model.PromotionTypePercentage,
		Value:         5,
		MinOrderValue: utils.Ptr(500000.0),
		IsActive:      true,
	})

	_, err := ValidateAndPrice(db, "MIN500K", 499999, nil, nil)
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionBelowMinimum, promoErr.Kind)

	_, err = ValidateAndPrice(db, "MIN500K", 500000, nil, nil)
	require.NoError(t, err)
}

func TestValidateAndPriceNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := ValidateAndPrice(db, "KHONGTONTAI", 100000, nil, nil)
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionNotFound, promoErr.Kind)
}

func TestValidateAndPriceInactive(t *testing.T) {
	db := setupTestDB(t)
	promotion := seedPromotion(t, db, model.Promotion{
		Code:     "TAT",
		Name:     "Đã tắt",
		Scope:    model.PromotionScopeGlobal,
		Type:     model.PromotionTypeFixed,
		Value:    10000,
		IsActive: true,
	})
	require.NoError(t, db.Model(&model.Promotion{}).Where("id = ?", promotion.ID).
		Update("is_active", false).Error)

	_, err := ValidateAndPrice(db, "TAT", 100000, nil, nil)
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionInactive, promoErr.Kind)
}

func TestValidateAndPriceOutOfWindow(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:      "HETHAN",
		Name:      "Hết hạn",
		Scope:     model.PromotionScopeGlobal,
		Type:      model.PromotionTypeFixed,
		Value:     10000,
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   time.Now().Add(-24 * time.Hour),
		IsActive:  true,
	})
	seedPromotion(t, db, model.Promotion{
		Code:      "CHUAMO",
		Name:      "Chưa mở",
		Scope:     model.PromotionScopeGlobal,
		Type:      model.PromotionTypeFixed,
		Value:     10000,
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(48 * time.Hour),
		IsActive:  true,
	})

	var promoErr *PromotionError
	_, err := ValidateAndPrice(db, "HETHAN", 100000, nil, nil)
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionOutOfWindow, promoErr.Kind)

	_, err = ValidateAndPrice(db, "CHUAMO", 100000, nil, nil)
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionOutOfWindow, promoErr.Kind)
}

func TestValidateAndPriceUsageExhausted(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:       "GIOIHAN",
		Name:       "Giới hạn lượt",
		Scope:      model.PromotionScopeGlobal,
		Type:       model.PromotionTypeFixed,
		Value:      10000,
		UsageLimit: utils.Ptr(5),
		UsedCount:  5,
		IsActive:   true,
	})

	_, err := ValidateAndPrice(db, "GIOIHAN", 100000, nil, nil)
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionUsageExhausted, promoErr.Kind)
}

func TestValidateAndPricePerUserLimitIgnoresCancelled(t *testing.T) {
	db := setupTestDB(t)
	customer := model.Customer{
		UserName: "khach1",
		Email:    "khach1@example.com",
		Phone:    "0900000001",
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, db.Create(&customer).Error)

	seedPromotion(t, db, model.Promotion{
		Code:         "MOTLAN",
		Name:         "Mỗi khách một lần",
		Scope:        model.PromotionScopeGlobal,
		Type:         model.PromotionTypeFixed,
		Value:        20000,
		PerUserLimit: utils.Ptr(1),
		IsActive:     true,
	})

	// Đơn đã hủy không tính vào lượt của khách
	seedOrder(t, db, model.Order{
		CustomerID:    &customer.ID,
		Status:        model.OrderCancelled,
		PaymentStatus: model.PaymentFailed,
		PaymentMethod: model.PaymentMethodMomo,
		PromotionCode: utils.StringPtr("MOTLAN"),
	})

	_, err := ValidateAndPrice(db, "MOTLAN", 100000, nil, &customer.ID)
	require.NoError(t, err)

	seedOrder(t, db, model.Order{
		CustomerID:    &customer.ID,
		Status:        model.OrderDelivered,
		PaymentStatus: model.PaymentPaid,
		PaymentMethod: model.PaymentMethodCOD,
		PromotionCode: utils.StringPtr("MOTLAN"),
	})

	_, err = ValidateAndPrice(db, "MOTLAN", 100000, nil, &customer.ID)
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromotionPerUserLimitReached, promoErr.Kind)

	// Khách vãng lai không bị giới hạn theo user
	_, err = ValidateAndPrice(db, "MOTLAN", 100000, nil, nil)
	require.NoError(t, err)
}

func TestValidateAndPriceFreeship(t *testing.T) {
	db := setupTestDB(t)
	seedPromotion(t, db, model.Promotion{
		Code:     "FREESHIP",
		Name:     "Miễn phí ship",
		Scope:    model.PromotionScopeGlobal,
		Type:     model.PromotionTypeFreeship,
		IsActive: true,
	})

	result, err := ValidateAndPrice(db, "FREESHIP", 200000, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.AppliedToShipping)
	assert.Equal(t, 0.0, result.DiscountAmount)
}

func TestValidateAndPriceSpecificItems(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db, 10) // giá 199.000
	other := model.Product{
		Name:       "Quần jean slim",
		Slug:       "quan-jean-slim",
		Price:      459000,
		Stock:      10,
		CategoryId: product.CategoryId,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&other).Error)

	variant := model.ProductVariant{
		ProductId: product.ID,
		Sku:       "ATB-TRANG-L",
		Price:     229000,
		Stock:     10,
	}
	require.NoError(t, db.Create(&variant).Error)

	promotion := seedPromotion(t, db, model.Promotion{
		Code:     "AOTHUN20",
		Name:     "Giảm áo thun",
		Scope:    model.PromotionScopeSpecificItems,
		Type:     model.PromotionTypePercentage,
		Value:    20,
		IsActive: true,
	})
	require.NoError(t, db.Create(&model.PromotionTarget{
		PromotionId: promotion.ID,
		ProductId:   product.ID,
	}).Error)
	require.NoError(t, db.Create(&model.PromotionTarget{
		PromotionId:      promotion.ID,
		ProductId:        product.ID,
		ProductVariantId: &variant.ID,
		OverrideValue:    utils.Ptr(50.0),
	}).Error)

	items := []model.CartItemInput{
		{ProductId: product.ID, Quantity: 2},                                // 2 x 199.000, giảm 20%
		{ProductId: product.ID, ProductVariantId: &variant.ID, Quantity: 1}, // 229.000, override 50%
		{ProductId: other.ID, Quantity: 1},                                  // không khớp target
	}
	subtotal := 2*199000.0 + 229000.0 + 459000.0

	result, err := ValidateAndPrice(db, "AOTHUN20", subtotal, items, nil)
	require.NoError(t, err)
	expected := 2*199000.0*0.20 + 229000.0*0.50
	assert.InDelta(t, expected, result.DiscountAmount, 0.001)
}
