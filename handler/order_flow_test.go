package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/router"
	"shop_manager/utils"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// JwtSecret được gán lúc init nên phải set cả hai nơi
	os.Setenv("JWT_SECRET", "test-secret")
	helper.JwtSecret = []byte("test-secret")
	os.Exit(m.Run())
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	app := fiber.New()
	router.SetupRoutes(app)
	return app, db
}

func seedCatalog(t *testing.T, db *gorm.DB, stock int) model.Product {
	t.Helper()
	category := model.Category{Name: "Áo", Slug: "ao", IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	product := model.Product{
		Name:       "Áo thun basic",
		Slug:       "ao-thun-basic",
		Price:      199000,
		Stock:      stock,
		CategoryId: category.ID,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func adminToken(t *testing.T, db *gorm.DB, role string) string {
	t.Helper()
	hashed, err := helper.HashPassword("admin123")
	require.NoError(t, err)
	account := model.Account{Username: "admin-" + role, Password: hashed, Active: true, Role: role}
	require.NoError(t, db.Create(&account).Error)

	token, err := helper.GenerateAccessToken(model.TokenClaim{AccountId: account.ID, Username: account.Username})
	require.NoError(t, err)
	return token
}

func customerToken(t *testing.T, db *gorm.DB) (string, model.Customer) {
	t.Helper()
	customer := model.Customer{
		UserName: "khach1",
		Email:    "khach1@example.com",
		Phone:    "0900000001",
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, db.Create(&customer).Error)

	token, err := helper.GenerateAccessToken(model.TokenClaim{CustomerId: customer.ID, Username: customer.UserName})
	require.NoError(t, err)
	return token, customer
}

func doJSON(t *testing.T, app *fiber.App, method, url, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

func checkoutBody(product model.Product, quantity int, promotionCode *string) fiber.Map {
	return fiber.Map{
		"items":         []fiber.Map{{"productId": product.ID, "quantity": quantity}},
		"paymentMethod": "cod",
		"promotionCode": promotionCode,
		"receiverName":  "Nguyễn Văn A",
		"phone":         "0900000001",
		"email":         "a@example.com",
		"address":       "1 Lê Lợi, Quận 1",
		"province":      "TP.HCM",
	}
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)

	resp, env := doJSON(t, app, "POST", "/api/v1/don-hang/dat-hang", "", checkoutBody(product, 2, nil))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", env.Status)

	var order model.Order
	require.NoError(t, db.Preload("Items").Preload("Shipping").First(&order).Error)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Nil(t, order.CustomerID)
	// 2 x 199.000 + phí ship đồng giá 30.000
	assert.Equal(t, 428000.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 199000.0, order.Items[0].Price)
	require.NotNil(t, order.Shipping)
	assert.Equal(t, "1 Lê Lợi, Quận 1", order.Shipping.Address)

	// Checkout chưa trừ kho, kho chỉ trừ khi duyệt
	var got model.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 10, got.Stock)
}

func TestCheckoutConsumesPromotionUsage(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	require.NoError(t, db.Create(&model.Promotion{
		Code:       "SALE10",
		Name:       "Giảm 10%",
		Scope:      model.PromotionScopeGlobal,
		Type:       model.PromotionTypePercentage,
		Value:      10,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(24 * time.Hour),
		UsageLimit: utils.Ptr(1),
		IsActive:   true,
	}).Error)

	resp, _ := doJSON(t, app, "POST", "/api/v1/don-hang/dat-hang", "", checkoutBody(product, 2, utils.StringPtr("SALE10")))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var order model.Order
	require.NoError(t, db.First(&order).Error)
	require.NotNil(t, order.DiscountAmount)
	assert.Equal(t, 39800.0, *order.DiscountAmount)
	assert.Equal(t, 398000.0+30000-39800, order.TotalAmount)

	var promotion model.Promotion
	require.NoError(t, db.Where("code = ?", "SALE10").First(&promotion).Error)
	assert.Equal(t, 1, promotion.UsedCount)

	// Hết lượt: checkout sau bị từ chối và không tạo đơn
	resp, env := doJSON(t, app, "POST", "/api/v1/don-hang/dat-hang", "", checkoutBody(product, 1, utils.StringPtr("SALE10")))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)

	var orderCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
}

func TestCheckoutRejectsOutOfStock(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 1)

	resp, _ := doJSON(t, app, "POST", "/api/v1/don-hang/dat-hang", "", checkoutBody(product, 5, nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var orderCount int64
	require.NoError(t, db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)
}

func TestApproveOrderEndpoint(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "ADMIN")

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		Email:         "a@example.com",
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 3, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	url := fmt.Sprintf("/api/v1/order/%d/approve", order.ID)
	resp, env := doJSON(t, app, "PATCH", url, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", env.Status)

	var got model.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 7, got.Stock)

	// Duyệt lại là no-op, kho không bị trừ hai lần
	resp, _ = doJSON(t, app, "PATCH", url, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 7, got.Stock)
}

func TestApproveOrderRequiresStaffRole(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	custToken, _ := customerToken(t, db)

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)
	url := fmt.Sprintf("/api/v1/order/%d/approve", order.ID)

	resp, _ := doJSON(t, app, "PATCH", url, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Token của khách hàng không có quyền admin
	resp, _ = doJSON(t, app, "PATCH", url, custToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var got model.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 10, got.Stock)
}

func TestApproveOrderRequiresPaidPrepaid(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "STAFF")

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodMomo,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	resp, _ := doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/order/%d/approve", order.ID), token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRejectOrderReleasesPromotionOnce(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "MANAGER")

	require.NoError(t, db.Create(&model.Promotion{
		Code:      "SALE10",
		Name:      "Giảm 10%",
		Scope:     model.PromotionScopeGlobal,
		Type:      model.PromotionTypePercentage,
		Value:     10,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		UsedCount: 1,
		IsActive:  true,
	}).Error)

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		PromotionCode: utils.StringPtr("SALE10"),
		Email:         "a@example.com",
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	url := fmt.Sprintf("/api/v1/order/%d/reject", order.ID)
	resp, _ := doJSON(t, app, "PATCH", url, token, fiber.Map{"reason": "Hết hàng nhà cung cấp"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderCancelled, got.Status)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "Hết hàng nhà cung cấp", *got.CancellationReason)

	var promotion model.Promotion
	require.NoError(t, db.Where("code = ?", "SALE10").First(&promotion).Error)
	assert.Equal(t, 0, promotion.UsedCount)

	// Từ chối đơn đã hủy: báo lỗi và không trả lượt dùng thêm
	resp, _ = doJSON(t, app, "PATCH", url, token, fiber.Map{"reason": "Từ chối lần hai"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	require.NoError(t, db.Where("code = ?", "SALE10").First(&promotion).Error)
	assert.Equal(t, 0, promotion.UsedCount)
}

func TestRejectOrderRequiresCOD(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "ADMIN")

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPaid,
		PaymentMethod: model.PaymentMethodMomo,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	// Đơn trả trước không từ chối trực tiếp được
	url := fmt.Sprintf("/api/v1/order/%d/reject", order.ID)
	resp, _ := doJSON(t, app, "PATCH", url, token, fiber.Map{"reason": "Sai địa chỉ"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderPending, got.Status)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

func TestUpdateOrderStatusCODFlow(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "STAFF")

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderProcessing,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)
	url := fmt.Sprintf("/api/v1/order/%d/status", order.ID)

	resp, _ := doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "SHIPPED"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// SHIPPED không thể quay lại PROCESSING
	resp, _ = doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "PROCESSING"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Giao COD thành công thì tự ghi nhận đã thanh toán
	resp, _ = doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "DELIVERED"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderDelivered, got.Status)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.NotNil(t, got.PaidAt)

	// Cùng trạng thái là no-op
	resp, _ = doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "DELIVERED"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpdateOrderStatusAdminCancel(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "MANAGER")

	require.NoError(t, db.Create(&model.Promotion{
		Code:      "SALE10",
		Name:      "Giảm 10%",
		Scope:     model.PromotionScopeGlobal,
		Type:      model.PromotionTypePercentage,
		Value:     10,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		UsedCount: 1,
		IsActive:  true,
	}).Error)

	// Đơn trả trước đã thanh toán, đang chuẩn bị hàng
	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderProcessing,
		PaymentStatus: model.PaymentPaid,
		PaymentMethod: model.PaymentMethodMomo,
		PromotionCode: utils.StringPtr("SALE10"),
		Email:         "a@example.com",
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	url := fmt.Sprintf("/api/v1/order/%d/status", order.ID)
	resp, _ := doJSON(t, app, "PATCH", url, token,
		fiber.Map{"status": "CANCELLED", "reason": "Khách yêu cầu hoàn tiền"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderCancelled, got.Status)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
	require.NotNil(t, got.CancellationReason)
	assert.Equal(t, "Khách yêu cầu hoàn tiền", *got.CancellationReason)

	var promotion model.Promotion
	require.NoError(t, db.Where("code = ?", "SALE10").First(&promotion).Error)
	assert.Equal(t, 0, promotion.UsedCount)

	// Hủy lần hai cùng trạng thái là no-op, không trả lượt dùng thêm
	resp, _ = doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "CANCELLED"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.Where("code = ?", "SALE10").First(&promotion).Error)
	assert.Equal(t, 0, promotion.UsedCount)
}

func TestUpdateOrderStatusDeliveredKeepsRefunded(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	token := adminToken(t, db, "STAFF")

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderShipped,
		PaymentStatus: model.PaymentRefunded,
		PaymentMethod: model.PaymentMethodCOD,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	// Giao thành công không ghi đè trạng thái đã hoàn tiền
	url := fmt.Sprintf("/api/v1/order/%d/status", order.ID)
	resp, _ := doJSON(t, app, "PATCH", url, token, fiber.Map{"status": "DELIVERED"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderDelivered, got.Status)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
	assert.Nil(t, got.PaidAt)
}

func TestGuestCancelOrderByCode(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		Email:         "a@example.com",
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	url := "/api/v1/don-hang/" + order.PublicCode + "/cancel"
	resp, _ := doJSON(t, app, "POST", url, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderCancelled, got.Status)

	// Hủy lần hai bị chặn vì đơn không còn PENDING
	resp, _ = doJSON(t, app, "POST", url, "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancelOrderRejectsPaid(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPaid,
		PaymentMethod: model.PaymentMethodMomo,
		Email:         "a@example.com",
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	// Đơn đã thanh toán thì khách không tự hủy được
	resp, _ := doJSON(t, app, "POST", "/api/v1/don-hang/"+order.PublicCode+"/cancel", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.OrderPending, got.Status)
}

func TestCancelOrderRequiresOwner(t *testing.T) {
	app, db := setupServer(t)
	product := seedCatalog(t, db, 10)
	_, customer := customerToken(t, db)

	order := model.Order{
		PublicCode:    helper.GenerateOrderCode(),
		CustomerID:    &customer.ID,
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.PaymentMethodCOD,
		Items:         []model.OrderItem{{ProductId: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, db.Create(&order).Error)

	// Khách vãng lai không hủy được đơn gắn tài khoản
	resp, _ := doJSON(t, app, "POST", "/api/v1/don-hang/"+order.PublicCode+"/cancel", "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestValidatePromotionEndpoint(t *testing.T) {
	app, db := setupServer(t)
	require.NoError(t, db.Create(&model.Promotion{
		Code:      "SALE10",
		Name:      "Giảm 10%",
		Scope:     model.PromotionScopeGlobal,
		Type:      model.PromotionTypePercentage,
		Value:     10,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		IsActive:  true,
	}).Error)

	resp, env := doJSON(t, app, "POST", "/api/v1/ma-giam-gia/kiem-tra", "", fiber.Map{"code": "sale10", "subtotal": 500000})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result model.PromotionResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 50000.0, result.DiscountAmount)

	resp, env = doJSON(t, app, "POST", "/api/v1/ma-giam-gia/kiem-tra", "", fiber.Map{"code": "KHONGCO", "subtotal": 500000})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", env.Code)
}
