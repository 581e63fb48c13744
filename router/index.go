package router

import (
	"shop_manager/handler"
	"shop_manager/middleware"
	"shop_manager/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/refresh-token", handler.RefreshToken)

	account := v1.Group("/account", logger.New())
	account.Get("/", middleware.Protected(), handler.GetAccounts)
	account.Get("/me", middleware.Protected(), handler.Me)
	account.Post("/", middleware.Protected(), validate.CreateAccount(), handler.CreateAccount)
	account.Post("/change-password", middleware.Protected(), validate.AdminChangePassword(), handler.AdminChangePassword)

	category := v1.Group("/category", logger.New())
	category.Post("/", middleware.Protected(), validate.CreateCategory(), handler.CreateCategory)
	category.Delete("/:id", middleware.Protected(), handler.DeleteCategory)

	v1.Post("/cloudinary-signature", middleware.Protected(), handler.GenerateSignature)
	product := v1.Group("/product", logger.New())
	product.Get("/", middleware.Protected(), handler.GetProducts)
	product.Get("/:id", middleware.Protected(), handler.GetProductById)
	product.Post("/", middleware.Protected(), validate.CreateProduct(), handler.CreateProduct)
	product.Put("/:productId", middleware.Protected(), validate.EditProduct("productId"), handler.EditProduct)
	product.Delete("/", middleware.Protected(), validate.Delete(), handler.DeleteProducts)
	product.Post("/:id/images", middleware.Protected(), handler.UploadProductImages)
	product.Delete("/images/:imageId", middleware.Protected(), handler.DeleteProductImage)

	promotion := v1.Group("/promotion", logger.New())
	promotion.Get("/", middleware.Protected(), handler.GetPromotions)
	promotion.Get("/:promotionId", middleware.Protected(), validate.GetById("promotionId"), handler.GetPromotionDetail)
	promotion.Post("/", middleware.Protected(), validate.CreatePromotion(), handler.CreatePromotion)
	promotion.Put("/:id", middleware.Protected(), validate.EditPromotion(), handler.EditPromotion)
	promotion.Delete("/:id", middleware.Protected(), handler.DeletePromotion)

	order := v1.Group("/order", logger.New())
	order.Get("/", middleware.Protected(), handler.GetOrders)
	order.Get("/stale", middleware.Protected(), handler.CountStaleOrders)
	order.Post("/auto-cancel", middleware.Protected(), handler.AutoCancelOrders)
	order.Get("/:orderId", middleware.Protected(), validate.GetById("orderId"), handler.GetOrderDetail)
	order.Patch("/:id/approve", middleware.Protected(), handler.ApproveOrder)
	order.Patch("/:id/reject", middleware.Protected(), validate.RejectOrder(), handler.RejectOrder)
	order.Patch("/:id/status", middleware.Protected(), validate.UpdateOrderStatus(), handler.UpdateOrderStatus)

	notification := v1.Group("/notification", logger.New())
	notification.Get("/admin", middleware.Protected(), handler.GetAdminNotifications)
	notification.Patch("/:id/read", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.MarkNotificationRead)

	// ROUTES
	app.Post("/payments", handler.CreatePayment)
	app.Get("/payments/:orderCode/status", handler.GetPaymentStatus)
	app.Get("/momo/return", handler.MomoCallback) // Callback từ Momo
	app.Post("/momo/ipn", handler.MomoIPN)
	// Server-to-Server
	app.Post("/stripe/create-payment", handler.CreateStripePayment)
	app.Post("/stripe/webhook", handler.StripeWebhook)

	//người dùng
	danhmuc := v1.Group("/danh-muc")
	danhmuc.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetCategories)

	sanpham := v1.Group("/san-pham")
	sanpham.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetProducts)
	sanpham.Get("/:id/danh-gia", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetProductReviews)
	sanpham.Post("/danh-gia", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.CreateReview(), handler.CreateReview)
	sanpham.Get("/:slug", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetProductBySlug)

	magiamgia := v1.Group("/ma-giam-gia")
	magiamgia.Post("/kiem-tra", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.ValidatePromotion(), handler.ValidatePromotion)

	donhang := v1.Group("/don-hang")
	donhang.Post("/dat-hang", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.Checkout(), handler.Checkout)
	donhang.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMyOrders)
	donhang.Get("/:orderCode", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetOrderByCode)
	donhang.Post("/:orderCode/cancel", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.CancelOrderByUser)

	thongbao := v1.Group("/thong-bao")
	thongbao.Get("/", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetMyNotifications)
	thongbao.Patch("/read-all", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.MarkAllNotificationsRead)
	thongbao.Get("/ws/:customerId", websocket.New(handler.NotificationWebsocket))

	khachhang := v1.Group("/khach-hang")
	khachhang.Post("/refresh-token", handler.RefreshCustomerToken)
	khachhang.Post("/login", handler.CustomerLogin)
	khachhang.Get("/me", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.GetCurrentCustomer)
	khachhang.Post("/register", validate.RegisterCustomer(), handler.RegisterCustomer)
	khachhang.Post("/change-password", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.ChangePasswordCustomer(), handler.ChangePasswordCustomer)
	khachhang.Post("/forgot-password", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.ForgetPassword(), handler.ForgotPassword)
	khachhang.Post("/reset-password", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.RestPassword(), handler.ResetPassword)
}
