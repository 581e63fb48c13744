package helper

import (
	"errors"
	"shop_manager/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	PromotionNotFound            = "NotFound"
	PromotionInactive            = "Inactive"
	PromotionOutOfWindow         = "OutOfWindow"
	PromotionUsageExhausted      = "UsageExhausted"
	PromotionBelowMinimum        = "BelowMinimum"
	PromotionPerUserLimitReached = "PerUserLimitReached"
)

// PromotionError mang mã lỗi máy đọc được + thông điệp cho người dùng
type PromotionError struct {
	Kind    string
	Message string
}

func (e *PromotionError) Error() string {
	return e.Message
}

// ValidateAndPrice kiểm tra điều kiện và tính số tiền giảm cho một mã giảm giá.
// Hàm chỉ đọc, không bao giờ tăng used_count — việc tiêu lượt dùng xảy ra lúc
// tạo đơn, trong transaction của checkout.
func ValidateAndPrice(db *gorm.DB, code string, subtotal float64, items []model.CartItemInput, customerId *uint) (*model.PromotionResult, error) {
	var promotion model.Promotion
	if err := db.Preload("Targets").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &PromotionError{Kind: PromotionNotFound, Message: "Mã giảm giá không tồn tại"}
		}
		return nil, err
	}

	if !promotion.IsActive {
		return nil, &PromotionError{Kind: PromotionInactive, Message: "Mã giảm giá đã bị vô hiệu hóa"}
	}

	now := time.Now()
	if now.Before(promotion.StartDate) || now.After(promotion.EndDate) {
		return nil, &PromotionError{Kind: PromotionOutOfWindow, Message: "Mã giảm giá chưa bắt đầu hoặc đã hết hạn"}
	}

	if promotion.UsageLimit != nil && promotion.UsedCount >= *promotion.UsageLimit {
		return nil, &PromotionError{Kind: PromotionUsageExhausted, Message: "Mã giảm giá đã hết lượt sử dụng"}
	}

	if promotion.MinOrderValue != nil && subtotal < *promotion.MinOrderValue {
		return nil, &PromotionError{Kind: PromotionBelowMinimum, Message: "Đơn hàng chưa đạt giá trị tối thiểu để áp mã"}
	}

	if customerId != nil && *customerId != 0 && promotion.PerUserLimit != nil {
		var used int64
		if err := db.Model(&model.Order{}).
			Where("customer_id = ? AND promotion_code = ? AND status <> ?",
				*customerId, promotion.Code, model.OrderCancelled).
			Count(&used).Error; err != nil {
			return nil, err
		}
		if used >= int64(*promotion.PerUserLimit) {
			return nil, &PromotionError{Kind: PromotionPerUserLimitReached, Message: "Bạn đã dùng hết lượt cho mã này"}
		}
	}

	result := &model.PromotionResult{
		PromotionId: promotion.ID,
		Code:        promotion.Code,
		Name:        promotion.Name,
		Scope:       promotion.Scope,
		Type:        promotion.Type,
		Value:       promotion.Value,
		MaxDiscount: promotion.MaxDiscount,
	}

	if promotion.Scope == model.PromotionScopeGlobal {
		switch promotion.Type {
		case model.PromotionTypeFreeship, model.PromotionTypeFreeshipPercent:
			// Giảm vào phí ship, caller tự tính trên báo giá vận chuyển thực tế
			result.AppliedToShipping = true
			result.DiscountAmount = 0
		case model.PromotionTypePercentage:
			discount := subtotal * promotion.Value / 100
			if promotion.MaxDiscount != nil && discount > *promotion.MaxDiscount {
				discount = *promotion.MaxDiscount
			}
			result.DiscountAmount = discount
		case model.PromotionTypeFixed:
			discount := promotion.Value
			if discount > subtotal {
				discount = subtotal
			}
			result.DiscountAmount = discount
		}
		return result, nil
	}

	// SPECIFIC_ITEMS: cộng dồn giảm giá trên từng item khớp target
	var discount float64
	for _, item := range items {
		target := matchTarget(promotion.Targets, item)
		if target == nil {
			continue
		}

		unitPrice, err := lookupUnitPrice(db, item)
		if err != nil {
			return nil, err
		}
		lineSubtotal := unitPrice * float64(item.Quantity)

		value := promotion.Value
		if target.OverrideValue != nil {
			value = *target.OverrideValue
		}

		switch promotion.Type {
		case model.PromotionTypePercentage:
			discount += lineSubtotal * value / 100
		case model.PromotionTypeFixed:
			if value > lineSubtotal {
				value = lineSubtotal
			}
			discount += value
		}
	}
	result.DiscountAmount = discount
	return result, nil
}

// matchTarget tìm target khớp item: ưu tiên khớp theo variant, item không có
// variant thì khớp target ghim theo sản phẩm (target không có variant)
func matchTarget(targets []model.PromotionTarget, item model.CartItemInput) *model.PromotionTarget {
	for i := range targets {
		target := &targets[i]
		if item.ProductVariantId != nil {
			if target.ProductVariantId != nil && *target.ProductVariantId == *item.ProductVariantId {
				return target
			}
			continue
		}
		if target.ProductVariantId == nil && target.ProductId == item.ProductId {
			return target
		}
	}
	return nil
}

func lookupUnitPrice(db *gorm.DB, item model.CartItemInput) (float64, error) {
	if item.ProductVariantId != nil {
		var variant model.ProductVariant
		if err := db.First(&variant, *item.ProductVariantId).Error; err != nil {
			return 0, err
		}
		return variant.Price, nil
	}
	var product model.Product
	if err := db.First(&product, item.ProductId).Error; err != nil {
		return 0, err
	}
	return product.Price, nil
}
