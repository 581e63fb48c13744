package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"shop_manager/database"
	"shop_manager/model"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/paymentintent"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CreateStripePayment tạo PaymentIntent cho đơn thanh toán thẻ quốc tế
func CreateStripePayment(c *fiber.Ctx) error {
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
	if order.PaymentMethod != model.PaymentMethodStripe {
		return c.Status(400).JSON(fiber.Map{"error": "Đơn hàng không thanh toán qua Stripe"})
	}
	if order.PaymentStatus == model.PaymentPaid {
		return c.Status(400).JSON(fiber.Map{"error": "Đơn hàng đã được thanh toán"})
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	// VND là zero-decimal currency, không nhân 100
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.TotalAmount)),
		Currency: stripe.String(string(stripe.CurrencyVND)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"orderCode": order.PublicCode,
		},
	}
	params.SetIdempotencyKey("pi-" + order.PublicCode)

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("Lỗi tạo PaymentIntent cho đơn %s: %v", order.PublicCode, err)
		return c.Status(500).JSON(fiber.Map{"error": "Lỗi tạo thanh toán Stripe"})
	}

	return c.JSON(fiber.Map{
		"message":      "Tạo thanh toán thành công",
		"clientSecret": intent.ClientSecret,
		"orderCode":    order.PublicCode,
	})
}

// StripeWebhook xử lý sự kiện từ Stripe. Đơn đã PAID thì webhook đến muộn
// hay đến trùng đều bị bỏ qua.
func StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEvent(payload, sigHeader, os.Getenv("STRIPE_WEBHOOK_SECRET"))
	if err != nil {
		log.Printf("Lỗi xác thực webhook Stripe: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
		}
		orderCode := intent.Metadata["orderCode"]
		if orderCode != "" {
			if order := markOrderPaid(orderCode); order != nil {
				NotifyOrderStatus(order, "Thanh toán thành công",
					fmt.Sprintf("Đơn %s đã được thanh toán qua Stripe", order.PublicCode))
			}
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
		}
		if orderCode := intent.Metadata["orderCode"]; orderCode != "" {
			markOrderPaymentFailed(orderCode)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}
