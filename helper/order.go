package helper

import (
	"errors"
	"fmt"
	"shop_manager/model"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Các cạnh hợp lệ của trạng thái đơn hàng. DELIVERED và CANCELLED là trạng thái cuối.
var orderTransitions = map[string][]string{
	model.OrderPending:    {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing: {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:    {model.OrderDelivered, model.OrderCancelled},
	model.OrderDelivered:  {},
	model.OrderCancelled:  {},
}

var (
	ErrEmptyOrder          = errors.New("đơn hàng không có sản phẩm")
	ErrInvalidPaymentState = errors.New("đơn hàng chưa được thanh toán")
)

type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("không thể chuyển trạng thái đơn hàng từ %s sang %s", e.From, e.To)
}

type InsufficientStockError struct {
	ProductName string
	Available   int
	Required    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sản phẩm %s không đủ hàng (còn %d, cần %d)", e.ProductName, e.Available, e.Required)
}

// CanTransition kiểm tra cạnh from→to theo bảng trạng thái. Cùng trạng thái
// không phải là một cạnh, caller tự xử lý như no-op.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func GenerateOrderCode() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// ReleasePromotionUsageTx giảm used_count của mã giảm giá đi n, không bao giờ
// xuống dưới 0. Phải được gọi trong transaction của chính thao tác hủy đơn.
func ReleasePromotionUsageTx(tx *gorm.DB, code string, n int) error {
	result := tx.Model(&model.Promotion{}).
		Where("code = ? AND used_count >= ?", strings.ToUpper(code), n).
		Update("used_count", gorm.Expr("used_count - ?", n))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// used_count < n, chốt về 0
		return tx.Model(&model.Promotion{}).
			Where("code = ?", strings.ToUpper(code)).
			Update("used_count", 0).Error
	}
	return nil
}

// MarkOrderCancelledTx chuyển đơn sang CANCELLED bằng điều kiện trạng thái hiện
// tại ngay trong câu UPDATE, nên hai lần hủy đồng thời chỉ có một lần thắng.
// Lượt dùng mã giảm giá chỉ được trả lại khi chính câu UPDATE này có hiệu lực,
// bảo đảm không bao giờ giảm used_count hai lần cho cùng một đơn.
func MarkOrderCancelledTx(tx *gorm.DB, order *model.Order, reason *string, paymentStatus *string) error {
	updates := map[string]interface{}{
		"status":       model.OrderCancelled,
		"cancelled_at": time.Now(),
	}
	if reason != nil {
		updates["cancellation_reason"] = *reason
	}
	if paymentStatus != nil {
		updates["payment_status"] = *paymentStatus
	}

	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &IllegalTransitionError{From: order.Status, To: model.OrderCancelled}
	}

	if order.PromotionCode != nil && *order.PromotionCode != "" {
		if err := ReleasePromotionUsageTx(tx, *order.PromotionCode, 1); err != nil {
			return err
		}
	}
	return nil
}

// ApproveOrderTx duyệt đơn PENDING → PROCESSING và trừ kho cho từng sản phẩm.
// Toàn bộ chạy trong một transaction: thiếu hàng ở bất kỳ item nào thì không
// trừ kho item nào (all-or-nothing).
func ApproveOrderTx(db *gorm.DB, orderId uint) (*model.Order, error) {
	var order model.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Preload("Items.Product").Preload("Items.Variant").
			First(&order, orderId).Error; err != nil {
			return err
		}

		if order.Status == model.OrderProcessing {
			return nil // đã duyệt rồi, no-op
		}
		if order.Status != model.OrderPending {
			return &IllegalTransitionError{From: order.Status, To: model.OrderProcessing}
		}
		if order.PaymentStatus == model.PaymentFailed {
			return ErrInvalidPaymentState
		}
		// Đơn trả trước phải thanh toán xong mới được duyệt
		if order.PaymentMethod != model.PaymentMethodCOD && order.PaymentStatus != model.PaymentPaid {
			return ErrInvalidPaymentState
		}
		if len(order.Items) == 0 {
			return ErrEmptyOrder
		}

		// Trừ kho có điều kiện stock >= quantity; RowsAffected = 0 nghĩa là
		// không đủ hàng (kể cả khi một đơn khác vừa trừ trước)
		for _, item := range order.Items {
			var result *gorm.DB
			if item.ProductVariantId != nil {
				result = tx.Model(&model.ProductVariant{}).
					Where("id = ? AND stock >= ?", *item.ProductVariantId, item.Quantity).
					Update("stock", gorm.Expr("stock - ?", item.Quantity))
			} else {
				result = tx.Model(&model.Product{}).
					Where("id = ? AND stock >= ?", item.ProductId, item.Quantity).
					Update("stock", gorm.Expr("stock - ?", item.Quantity))
			}
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				available := item.Product.Stock
				if item.Variant != nil {
					available = item.Variant.Stock
				}
				return &InsufficientStockError{
					ProductName: item.Product.Name,
					Available:   available,
					Required:    item.Quantity,
				}
			}
		}

		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, model.OrderPending).
			Update("status", model.OrderProcessing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Đơn vừa bị thao tác khác chuyển trạng thái
			return &IllegalTransitionError{From: order.Status, To: model.OrderProcessing}
		}
		order.Status = model.OrderProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// cancelStaleOrderTx hủy một đơn quá hạn bằng UPDATE có điều kiện trạng thái.
// Trả về true khi chính lần gọi này chuyển được đơn; lần gọi thua cuộc (đơn
// vừa bị xử lý nơi khác) không được tính lượt trả mã giảm giá.
func cancelStaleOrderTx(tx *gorm.DB, orderId uint) (bool, error) {
	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			orderId, model.OrderPending, model.PaymentPending).
		Updates(map[string]interface{}{
			"status":         model.OrderCancelled,
			"payment_status": model.PaymentFailed,
			"cancelled_at":   time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AutoCancelStalePending hủy hàng loạt các đơn trả trước còn PENDING quá hạn
// thanh toán. An toàn khi chạy lặp lại và chạy chồng nhau: mỗi đơn được hủy
// bằng CAS trạng thái, chỉ đơn thực sự chuyển được mới trả lại lượt dùng mã.
func AutoCancelStalePending(db *gorm.DB, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	var cancelled int64

	err := db.Transaction(func(tx *gorm.DB) error {
		var stale []model.Order
		if err := tx.
			Where("status = ? AND payment_status = ? AND payment_method <> ? AND created_at < ?",
				model.OrderPending, model.PaymentPending, model.PaymentMethodCOD, cutoff).
			Find(&stale).Error; err != nil {
			return err
		}

		// Gộp số lượt trả theo mã, chỉ đếm các đơn lần chạy này chuyển được
		usedCodes := map[string]int{}
		for _, o := range stale {
			ok, err := cancelStaleOrderTx(tx, o.ID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			cancelled++
			if o.PromotionCode != nil && *o.PromotionCode != "" {
				usedCodes[*o.PromotionCode]++
			}
		}
		for code, n := range usedCodes {
			if err := ReleasePromotionUsageTx(tx, code, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

// CountStalePending đếm số đơn sẽ bị hủy nếu chạy AutoCancelStalePending (dry-run)
func CountStalePending(db *gorm.DB, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	var count int64
	err := db.Model(&model.Order{}).
		Where("status = ? AND payment_status = ? AND payment_method <> ? AND created_at < ?",
			model.OrderPending, model.PaymentPending, model.PaymentMethodCOD, cutoff).
		Count(&count).Error
	return count, err
}
