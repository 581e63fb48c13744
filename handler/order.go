package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

func orderPreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Shipping")
}

// GetMyOrders danh sách đơn của khách đang đăng nhập
func GetMyOrders(c *fiber.Ctx) error {
	customerId, ok := c.Locals("customerId").(uint)
	if !ok || customerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}

	db := database.DB
	var orders model.Orders
	if err := orderPreloads(db).
		Where("customer_id = ?", customerId).
		Order("id DESC").Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, orders)
}

// GetOrderByCode tra cứu đơn bằng mã công khai, khách vãng lai dùng được
func GetOrderByCode(c *fiber.Ctx) error {
	orderCode := strings.ToUpper(c.Params("orderCode"))

	db := database.DB
	var order model.Order
	if err := orderPreloads(db).
		Where("public_code = ?", orderCode).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	// Đơn gắn tài khoản thì chỉ chủ đơn xem được
	if order.CustomerID != nil {
		customerId, _ := c.Locals("customerId").(uint)
		if customerId != *order.CustomerID {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not order owner"))
		}
	}

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// GetOrders danh sách đơn cho admin, có filter + phân trang
func GetOrders(c *fiber.Ctx) error {
	filterInput := new(model.FilterOrder)
	if err := c.QueryParser(filterInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INPUT, err)
	}
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	db := database.DB
	condition := db.Model(&model.Order{})

	if filterInput.SearchKey != "" {
		key := "%" + strings.ToLower(filterInput.SearchKey) + "%"
		condition = condition.Where(
			"LOWER(public_code) LIKE ? OR LOWER(customer_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			key, key, key, key)
	}
	if filterInput.Status != nil {
		condition = condition.Where("status = ?", strings.ToUpper(*filterInput.Status))
	}
	if filterInput.PaymentStatus != nil {
		condition = condition.Where("payment_status = ?", strings.ToUpper(*filterInput.PaymentStatus))
	}
	if filterInput.PaymentMethod != nil {
		condition = condition.Where("payment_method = ?", strings.ToLower(*filterInput.PaymentMethod))
	}

	var totalCount int64
	condition.Count(&totalCount)

	condition = utils.ApplyPagination(condition, filterInput.Limit, filterInput.Page)

	var orders model.Orders
	condition.Preload("Items").Preload("Items.Product").Preload("Shipping").
		Order("id DESC").Find(&orders)

	response := &model.ResponseCustom{
		Rows:       orders,
		Limit:      filterInput.Limit,
		Page:       filterInput.Page,
		TotalCount: totalCount,
	}
	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

func GetOrderDetail(c *fiber.Ctx) error {
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	orderId, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	db := database.DB
	var order model.Order
	if err := orderPreloads(db).Preload("Customer").First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// ApproveOrder duyệt đơn PENDING → PROCESSING, trừ kho all-or-nothing
func ApproveOrder(c *fiber.Ctx) error {
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	orderId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	order, err := helper.ApproveOrderTx(database.DB, uint(orderId))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
		}
		var transitionErr *helper.IllegalTransitionError
		if errors.As(err, &transitionErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, transitionErr.Error(), err)
		}
		var stockErr *helper.InsufficientStockError
		if errors.As(err, &stockErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, stockErr.Error(), err)
		}
		if errors.Is(err, helper.ErrInvalidPaymentState) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Đơn hàng chưa được thanh toán, không thể duyệt", err)
		}
		if errors.Is(err, helper.ErrEmptyOrder) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Đơn hàng không có sản phẩm", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	NotifyOrderStatus(order, "Đơn hàng được xác nhận",
		fmt.Sprintf("Đơn %s đã được xác nhận và đang chuẩn bị hàng", order.PublicCode))

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// RejectOrder admin từ chối đơn PENDING, bắt buộc có lý do
func RejectOrder(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.RejectOrderInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	orderId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var order model.Order
	if err := orderPreloads(db).First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	if order.Status != model.OrderPending {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			(&helper.IllegalTransitionError{From: order.Status, To: model.OrderCancelled}).Error(),
			errors.New("only pending orders can be rejected"))
	}

	// Chỉ từ chối đơn COD, đơn trả trước phải đi đường hủy có hoàn tiền
	if order.PaymentMethod != model.PaymentMethodCOD {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Đơn trả trước không thể từ chối trực tiếp, vui lòng xử lý hoàn tiền", errors.New("reject is cod only"))
	}

	// Đơn đã thanh toán thì đánh dấu cần hoàn tiền
	var paymentStatus *string
	if order.PaymentStatus == model.PaymentPaid {
		paymentStatus = utils.StringPtr(model.PaymentRefunded)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return helper.MarkOrderCancelledTx(tx, &order, &input.Reason, paymentStatus)
	})
	if err != nil {
		var transitionErr *helper.IllegalTransitionError
		if errors.As(err, &transitionErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, transitionErr.Error(), err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	orderPreloads(db).First(&order, order.ID)
	go SendCancelConfirmationEmail(order, input.Reason)
	NotifyOrderStatus(&order, "Đơn hàng bị từ chối",
		fmt.Sprintf("Đơn %s đã bị từ chối: %s", order.PublicCode, input.Reason))

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// CancelOrderByUser khách tự hủy đơn của mình khi đơn còn PENDING
func CancelOrderByUser(c *fiber.Ctx) error {
	orderCode := strings.ToUpper(c.Params("orderCode"))

	db := database.DB
	var order model.Order
	if err := orderPreloads(db).
		Where("public_code = ?", orderCode).First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	if order.CustomerID != nil {
		customerId, _ := c.Locals("customerId").(uint)
		if customerId != *order.CustomerID {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not order owner"))
		}
	}

	if order.Status != model.OrderPending {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Đơn hàng đã được xử lý, không thể tự hủy", errors.New("order is not pending"))
	}

	// Đơn đã thanh toán phải liên hệ hỗ trợ để hủy
	if order.PaymentStatus == model.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Đơn hàng đã thanh toán, vui lòng liên hệ hỗ trợ để hủy", errors.New("order already paid"))
	}

	reason := "Khách hàng tự hủy đơn"
	err := db.Transaction(func(tx *gorm.DB) error {
		return helper.MarkOrderCancelledTx(tx, &order, &reason, nil)
	})
	if err != nil {
		var transitionErr *helper.IllegalTransitionError
		if errors.As(err, &transitionErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, transitionErr.Error(), err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	orderPreloads(db).First(&order, order.ID)
	go SendCancelConfirmationEmail(order, reason)
	NotifyNewOrderEvent(&order, "Khách hủy đơn",
		fmt.Sprintf("Khách đã hủy đơn %s", order.PublicCode))

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdateOrderStatus chuyển trạng thái đơn theo bảng trạng thái hợp lệ.
// COD giao thành công thì tự động ghi nhận đã thanh toán.
func UpdateOrderStatus(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.UpdateOrderStatusInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	orderId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var order model.Order
	if err := orderPreloads(db).First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, err)
	}

	// Cùng trạng thái là no-op, trả về đơn hiện tại
	if order.Status == input.Status {
		return utils.SuccessResponse(c, fiber.StatusOK, order)
	}

	if !helper.CanTransition(order.Status, input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			(&helper.IllegalTransitionError{From: order.Status, To: input.Status}).Error(),
			errors.New("illegal transition"))
	}

	// PROCESSING và CANCELLED có nghiệp vụ riêng (trừ kho / trả mã), đi đường riêng
	if input.Status == model.OrderProcessing {
		return ApproveOrder(c)
	}
	if input.Status == model.OrderCancelled {
		reason := "Đơn hàng bị hủy bởi cửa hàng"
		if input.Reason != nil && strings.TrimSpace(*input.Reason) != "" {
			reason = strings.TrimSpace(*input.Reason)
		}

		// Đơn đã thanh toán thì đánh dấu cần hoàn tiền
		var paymentStatus *string
		if order.PaymentStatus == model.PaymentPaid {
			paymentStatus = utils.StringPtr(model.PaymentRefunded)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			return helper.MarkOrderCancelledTx(tx, &order, &reason, paymentStatus)
		})
		if err != nil {
			var transitionErr *helper.IllegalTransitionError
			if errors.As(err, &transitionErr) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, transitionErr.Error(), err)
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}

		orderPreloads(db).First(&order, order.ID)
		go SendCancelConfirmationEmail(order, reason)
		NotifyOrderStatus(&order, "Đơn hàng đã hủy",
			fmt.Sprintf("Đơn %s đã bị hủy: %s", order.PublicCode, reason))
		return utils.SuccessResponse(c, fiber.StatusOK, order)
	}

	updates := map[string]interface{}{"status": input.Status}
	// Giao COD thành công thì ghi nhận thu tiền, nhưng không ghi đè
	// trạng thái FAILED/REFUNDED đã có
	if input.Status == model.OrderDelivered &&
		order.PaymentMethod == model.PaymentMethodCOD &&
		order.PaymentStatus == model.PaymentPending {
		updates["payment_status"] = model.PaymentPaid
		updates["paid_at"] = time.Now()
	}

	result := db.Model(&model.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			(&helper.IllegalTransitionError{From: order.Status, To: input.Status}).Error(),
			errors.New("order changed concurrently"))
	}

	orderPreloads(db).First(&order, order.ID)

	switch input.Status {
	case model.OrderShipped:
		NotifyOrderStatus(&order, "Đơn hàng đang giao",
			fmt.Sprintf("Đơn %s đã được bàn giao cho đơn vị vận chuyển", order.PublicCode))
	case model.OrderDelivered:
		NotifyOrderStatus(&order, "Giao hàng thành công",
			fmt.Sprintf("Đơn %s đã giao thành công", order.PublicCode))
	}

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// AutoCancelOrders chạy tay việc hủy đơn trả trước quá hạn thanh toán
func AutoCancelOrders(c *fiber.Ctx) error {
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	cancelled, err := helper.AutoCancelStalePending(database.DB, helper.PendingTimeout())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"cancelled": cancelled})
}

// CountStaleOrders đếm trước số đơn sẽ bị hủy (dry-run)
func CountStaleOrders(c *fiber.Ctx) error {
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	count, err := helper.CountStalePending(database.DB, helper.PendingTimeout())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"stale": count})
}

type orderCancelledEmailData struct {
	OrderCode    string
	CustomerName string
	Items        string
	TotalAmount  float64
	Reason       string
	Refund       bool
	CancelledAt  string
}

// SendCancelConfirmationEmail gửi email báo hủy đơn, nhúng QR mã đơn để tra cứu
func SendCancelConfirmationEmail(order model.Order, reason string) {
	var lines []string
	for _, item := range order.Items {
		line := fmt.Sprintf("%s x%d", item.Product.Name, item.Quantity)
		if item.Options != nil {
			line = fmt.Sprintf("%s (%s) x%d", item.Product.Name, *item.Options, item.Quantity)
		}
		lines = append(lines, line)
	}

	data := orderCancelledEmailData{
		OrderCode:    order.PublicCode,
		CustomerName: order.CustomerName,
		Items:        strings.Join(lines, "; "),
		TotalAmount:  order.TotalAmount,
		Reason:       reason,
		Refund:       order.PaymentStatus == model.PaymentRefunded,
		CancelledAt:  time.Now().Format("15:04 - 02/01/2006"),
	}

	tmplPath := "templates/order_cancelled.html"
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		log.Printf("Lỗi load template hủy đơn: %v", err)
		return
	}

	var htmlBody bytes.Buffer
	if err := tmpl.Execute(&htmlBody, data); err != nil {
		log.Printf("Lỗi render template hủy đơn: %v", err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_FROM"))
	m.SetHeader("To", order.Email)
	m.SetHeader("Subject", fmt.Sprintf("Hủy đơn hàng - Mã đơn: %s", order.PublicCode))
	m.SetBody("text/html", htmlBody.String())

	// Nhúng QR mã đơn để khách tra cứu nhanh
	qrBytes, err := utils.GenerateQRCode(order.PublicCode, 400)
	if err == nil {
		m.Embed("qr_cancel.png", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qrBytes)
			return err
		}), gomail.SetHeader(map[string][]string{
			"Content-Type":        {"image/png"},
			"Content-ID":          {"<qr_cancel_code>"},
			"Content-Disposition": {"inline"},
		}))
	}

	d := gomail.NewDialer(os.Getenv("SMTP_HOST"), 587, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"))
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Lỗi gửi email hủy đơn cho %s: %v", order.Email, err)
	}
}
