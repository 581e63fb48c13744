package handler

import (
	"fmt"
	"net/url"
	"os"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/model"
	"shop_manager/utils"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CreatePayment tạo URL thanh toán Momo cho đơn trả trước còn PENDING
func CreatePayment(c *fiber.Ctx) error {
	var input model.CreatePaymentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Không thể phân tích yêu cầu: %s", err.Error()),
		})
	}

	validate := validator.New()
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	db := database.DB
	var order model.Order
	if err := db.Where("public_code = ? AND status = ?",
		strings.ToUpper(input.OrderCode), model.OrderPending).First(&order).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Đơn hàng không hợp lệ"})
	}
	if order.PaymentMethod != model.PaymentMethodMomo {
		return c.Status(400).JSON(fiber.Map{"error": "Đơn hàng không thanh toán qua Momo"})
	}
	if order.PaymentStatus == model.PaymentPaid {
		return c.Status(400).JSON(fiber.Map{"error": "Đơn hàng đã được thanh toán"})
	}

	momo := NewMomo()
	req := model.PaymentRequest{
		OrderCode: order.PublicCode,
		Amount:    int64(order.TotalAmount),
		OrderInfo: fmt.Sprintf("Thanh toán đơn hàng %s", order.PublicCode),
		IPAddr:    c.IP(),
	}

	paymentUrl, err := momo.BuildPaymentUrl(req)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Lỗi tạo payment URL"})
	}

	return c.JSON(fiber.Map{
		"message":    "Tạo thanh toán thành công",
		"paymentUrl": paymentUrl,
		"orderCode":  order.PublicCode,
		"nextStep":   "Hoàn tất thanh toán",
	})
}

// markOrderPaid ghi nhận thanh toán một lần duy nhất: đơn đã PAID thì mọi
// callback đến sau đều là no-op (RowsAffected = 0)
func markOrderPaid(orderCode string) *model.Order {
	db := database.DB
	result := db.Model(&model.Order{}).
		Where("public_code = ? AND payment_status <> ?", orderCode, model.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentPaid,
			"paid_at":        time.Now(),
		})
	if result.Error != nil || result.RowsAffected == 0 {
		return nil
	}

	var order model.Order
	if err := db.Where("public_code = ?", orderCode).First(&order).Error; err != nil {
		return nil
	}
	return &order
}

func markOrderPaymentFailed(orderCode string) {
	database.DB.Model(&model.Order{}).
		Where("public_code = ? AND payment_status = ?", orderCode, model.PaymentPending).
		Update("payment_status", model.PaymentFailed)
}

func MomoCallback(c *fiber.Ctx) error {
	momo := NewMomo()
	query, _ := url.ParseQuery(string(c.Request().URI().QueryString()))

	result := momo.VerifyReturnUrl(query)
	if result.IsSuccess {
		if order := markOrderPaid(result.OrderCode); order != nil {
			NotifyOrderStatus(order, "Thanh toán thành công",
				fmt.Sprintf("Đơn %s đã được thanh toán qua Momo", order.PublicCode))
		}
		return c.Redirect(fmt.Sprintf("%s/success?orderCode=%s", os.Getenv("APP_URL"), result.OrderCode))
	}

	if result.OrderCode != "" {
		markOrderPaymentFailed(result.OrderCode)
	}
	return c.Redirect(fmt.Sprintf("%s/payment-failed?reason=%s", os.Getenv("APP_URL"), url.QueryEscape(result.Message)))
}

func MomoIPN(c *fiber.Ctx) error {
	momo := NewMomo()

	// Parse POST body as query
	body := c.Body()
	query, _ := url.ParseQuery(string(body))
	result := momo.VerifyIPN(query)

	if result.IsSuccess {
		if order := markOrderPaid(result.OrderCode); order != nil {
			NotifyOrderStatus(order, "Thanh toán thành công",
				fmt.Sprintf("Đơn %s đã được thanh toán qua Momo", order.PublicCode))
		}
		return c.JSON(fiber.Map{
			"resultCode": 0,
			"message":    "Success",
		})
	}

	if result.OrderCode != "" {
		markOrderPaymentFailed(result.OrderCode)
	}
	return c.JSON(fiber.Map{
		"resultCode": 1,
		"message":    "Failed",
	})
}

// GetPaymentStatus cho frontend poll trạng thái thanh toán của đơn
func GetPaymentStatus(c *fiber.Ctx) error {
	orderCode := strings.ToUpper(c.Params("orderCode"))

	var order model.Order
	if err := database.DB.Where("public_code = ?", orderCode).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"orderCode":     order.PublicCode,
		"paymentStatus": order.PaymentStatus,
		"paidAt":        order.PaidAt,
	})
}
