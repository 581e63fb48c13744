package handler

import (
	"errors"
	"fmt"
	"os"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// shippingFee phí vận chuyển đồng giá, cấu hình qua env
func shippingFee() float64 {
	if raw := os.Getenv("SHIPPING_FLAT_FEE"); raw != "" {
		if fee, err := strconv.ParseFloat(raw, 64); err == nil {
			return fee
		}
	}
	return 30000
}

// Checkout tạo đơn hàng từ giỏ hàng. Toàn bộ chạy trong một transaction:
// snapshot giá, áp mã giảm giá (tiêu lượt dùng ngay tại đây), tạo shipping.
// Kho KHÔNG bị trừ ở bước này — kho chỉ trừ khi admin duyệt đơn.
func Checkout(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(model.CheckoutInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	// Khách đã đăng nhập thì gắn đơn vào tài khoản, khách vãng lai thì để trống
	var customerId *uint
	if id, ok := c.Locals("customerId").(uint); ok && id != 0 {
		customerId = &id
	}

	var order model.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		var orderItems []model.OrderItem

		for _, cartItem := range input.Items {
			var product model.Product
			if err := tx.First(&product, cartItem.ProductId).Error; err != nil {
				return fmt.Errorf("sản phẩm %d không tồn tại", cartItem.ProductId)
			}
			if !product.IsActive {
				return fmt.Errorf("sản phẩm %s đã ngừng bán", product.Name)
			}

			unitPrice := product.Price
			var options *string

			if cartItem.ProductVariantId != nil {
				var variant model.ProductVariant
				if err := tx.Where("id = ? AND product_id = ?", *cartItem.ProductVariantId, product.ID).
					First(&variant).Error; err != nil {
					return fmt.Errorf("biến thể %d không thuộc sản phẩm %s", *cartItem.ProductVariantId, product.Name)
				}
				unitPrice = variant.Price

				var parts []string
				if variant.Color != nil {
					parts = append(parts, "Màu: "+*variant.Color)
				}
				if variant.Size != nil {
					parts = append(parts, "Size: "+*variant.Size)
				}
				if len(parts) > 0 {
					options = utils.StringPtr(strings.Join(parts, ", "))
				}

				// Kiểm tra mềm: báo hết hàng sớm cho khách, trừ kho thật khi duyệt
				if variant.Stock < cartItem.Quantity {
					return &helper.InsufficientStockError{
						ProductName: product.Name,
						Available:   variant.Stock,
						Required:    cartItem.Quantity,
					}
				}
			} else if product.Stock < cartItem.Quantity {
				return &helper.InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Required:    cartItem.Quantity,
				}
			}

			subtotal += unitPrice * float64(cartItem.Quantity)
			orderItems = append(orderItems, model.OrderItem{
				ProductId:        cartItem.ProductId,
				ProductVariantId: cartItem.ProductVariantId,
				Quantity:         cartItem.Quantity,
				Price:            unitPrice,
				Options:          options,
			})
		}

		if len(orderItems) == 0 {
			return helper.ErrEmptyOrder
		}

		fee := shippingFee()
		feeDiscount := 0.0
		var discountAmount *float64
		var promotionCode *string

		if input.PromotionCode != nil && strings.TrimSpace(*input.PromotionCode) != "" {
			result, err := helper.ValidateAndPrice(tx, *input.PromotionCode, subtotal, input.Items, customerId)
			if err != nil {
				return err
			}

			// Tiêu một lượt dùng bằng UPDATE có điều kiện: hai checkout tranh
			// lượt cuối cùng thì chỉ một bên thắng
			consume := tx.Model(&model.Promotion{}).
				Where("code = ? AND is_active = ?", result.Code, true)
			var promotion model.Promotion
			if err := tx.Where("code = ?", result.Code).First(&promotion).Error; err != nil {
				return err
			}
			if promotion.UsageLimit != nil {
				consume = consume.Where("used_count < ?", *promotion.UsageLimit)
			}
			consumed := consume.Update("used_count", gorm.Expr("used_count + 1"))
			if consumed.Error != nil {
				return consumed.Error
			}
			if consumed.RowsAffected == 0 {
				return &helper.PromotionError{Kind: helper.PromotionUsageExhausted, Message: "Mã giảm giá đã hết lượt sử dụng"}
			}

			if result.AppliedToShipping {
				switch result.Type {
				case model.PromotionTypeFreeship:
					feeDiscount = fee
				case model.PromotionTypeFreeshipPercent:
					feeDiscount = fee * result.Value / 100
					if result.MaxDiscount != nil && feeDiscount > *result.MaxDiscount {
						feeDiscount = *result.MaxDiscount
					}
					if feeDiscount > fee {
						feeDiscount = fee
					}
				}
			}

			promotionCode = utils.StringPtr(result.Code)
			discountAmount = utils.Ptr(result.DiscountAmount)
		}

		total := subtotal + fee - feeDiscount
		if discountAmount != nil {
			total -= *discountAmount
		}
		if total < 0 {
			total = 0
		}

		order = model.Order{
			PublicCode:     helper.GenerateOrderCode(),
			CustomerID:     customerId,
			TotalAmount:    total,
			DiscountAmount: discountAmount,
			PromotionCode:  promotionCode,
			Status:         model.OrderPending,
			PaymentStatus:  model.PaymentPending,
			PaymentMethod:  input.PaymentMethod,
			CustomerName:   input.ReceiverName,
			Phone:          input.Phone,
			Email:          input.Email,
			Items:          orderItems,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		shipping := model.Shipping{
			OrderId:      order.ID,
			ReceiverName: input.ReceiverName,
			Phone:        input.Phone,
			Address:      input.Address,
			Province:     input.Province,
			Fee:          fee,
			FeeDiscount:  feeDiscount,
		}
		if err := tx.Create(&shipping).Error; err != nil {
			return err
		}
		order.Shipping = &shipping
		return nil
	})
	if err != nil {
		var promoErr *helper.PromotionError
		if errors.As(err, &promoErr) {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, promoErr.Message, err, "promotionCode")
		}
		var stockErr *helper.InsufficientStockError
		if errors.As(err, &stockErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, stockErr.Error(), err)
		}
		if errors.Is(err, helper.ErrEmptyOrder) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Giỏ hàng trống", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	db.Preload("Items.Product").Preload("Items.Variant").Preload("Shipping").
		First(&order, order.ID)

	sendNewOrderEmail(&order)
	NotifyNewOrder(&order)

	return utils.SuccessResponse(c, fiber.StatusCreated, order)
}

func sendNewOrderEmail(order *model.Order) {
	var lines []string
	for _, item := range order.Items {
		line := fmt.Sprintf("%s x%d", item.Product.Name, item.Quantity)
		if item.Options != nil {
			line = fmt.Sprintf("%s (%s) x%d", item.Product.Name, *item.Options, item.Quantity)
		}
		lines = append(lines, line)
	}

	discount := 0.0
	if order.DiscountAmount != nil {
		discount = *order.DiscountAmount
	}
	address := ""
	if order.Shipping != nil {
		address = order.Shipping.Address
	}

	utils.SendOrderConfirmationEmail(order.Email, utils.OrderConfirmationData{
		OrderCode:      order.PublicCode,
		CustomerName:   order.CustomerName,
		Items:          strings.Join(lines, "; "),
		TotalAmount:    order.TotalAmount,
		DiscountAmount: discount,
		PaymentMethod:  order.PaymentMethod,
		Address:        address,
		DetailLink:     fmt.Sprintf("%s/don-hang/%s", os.Getenv("APP_URL"), order.PublicCode),
	})
}
