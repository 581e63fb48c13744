package model

import "time"

const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodMomo   = "momo"
	PaymentMethodStripe = "stripe"
)

type Order struct {
	DTO
	PublicCode string    `gorm:"unique;size:20" json:"publicCode"` // Mã đơn hàng công khai (ORD-XXXXXXXX)
	CustomerID *uint     `json:"customerId,omitempty"`             // Null nếu khách vãng lai (guest)
	Customer   *Customer `json:"customer,omitempty"`

	TotalAmount    float64  `gorm:"type:decimal(12,2)" json:"totalAmount"`
	DiscountAmount *float64 `gorm:"type:decimal(12,2)" json:"discountAmount,omitempty"`
	PromotionCode  *string  `json:"promotionCode,omitempty"`

	Status        string `gorm:"default:'PENDING'" json:"status"`        // PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED
	PaymentStatus string `gorm:"default:'PENDING'" json:"paymentStatus"` // PENDING, PAID, FAILED, REFUNDED
	PaymentMethod string `json:"paymentMethod"`                          // cod, momo, stripe

	CancellationReason *string    `json:"cancellationReason,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`

	Items    []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
	Shipping *Shipping   `gorm:"foreignKey:OrderId" json:"shipping,omitempty"`
}

type Orders []Order

type OrderItem struct {
	DTO
	OrderId          uint  `gorm:"not null;index" json:"orderId"`
	ProductId        uint  `gorm:"not null" json:"productId"`
	ProductVariantId *uint `json:"productVariantId,omitempty"`

	Product Product         `gorm:"foreignKey:ProductId" json:"product"`
	Variant *ProductVariant `gorm:"foreignKey:ProductVariantId" json:"variant,omitempty"`

	Quantity        int      `gorm:"not null" json:"quantity"`
	Price           float64  `gorm:"type:decimal(12,2);not null" json:"price"` // Giá tại thời điểm đặt
	DiscountedPrice *float64 `gorm:"type:decimal(12,2)" json:"discountedPrice,omitempty"`
	Options         *string  `json:"options,omitempty"` // Hiển thị: "Màu: Đen, Size: L"
}

type Shipping struct {
	DTO
	OrderId      uint    `gorm:"not null;uniqueIndex" json:"orderId"`
	ReceiverName string  `gorm:"not null" json:"receiverName"`
	Phone        string  `gorm:"not null" json:"phone"`
	Address      string  `gorm:"not null" json:"address"`
	Province     string  `json:"province"`
	Fee          float64 `gorm:"type:decimal(12,2)" json:"fee"`
	FeeDiscount  float64 `gorm:"type:decimal(12,2)" json:"feeDiscount"`
}

type CartItemInput struct {
	ProductId        uint  `validate:"required" json:"productId"`
	ProductVariantId *uint `json:"productVariantId"`
	Quantity         int   `validate:"required,gt=0" json:"quantity"`
}

type CheckoutInput struct {
	Items         []CartItemInput `validate:"required,min=1,dive" json:"items"`
	PaymentMethod string          `validate:"required,oneof=cod momo stripe" json:"paymentMethod"`
	PromotionCode *string         `json:"promotionCode"`

	ReceiverName string `validate:"required" json:"receiverName"`
	Phone        string `validate:"required" json:"phone"`
	Email        string `validate:"required,email" json:"email"`
	Address      string `validate:"required" json:"address"`
	Province     string `json:"province"`
}

type RejectOrderInput struct {
	Reason string `validate:"required" json:"reason"`
}

type UpdateOrderStatusInput struct {
	Status string  `validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED" json:"status"`
	Reason *string `json:"reason"`
}

type FilterOrder struct {
	Pagination
	SearchKey     string  `json:"searchKey"`
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	PaymentMethod *string `json:"paymentMethod"`
}
