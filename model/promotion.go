package model

import "time"

const (
	PromotionScopeGlobal        = "GLOBAL_ORDER"
	PromotionScopeSpecificItems = "SPECIFIC_ITEMS"
)

const (
	PromotionTypePercentage      = "PERCENTAGE"
	PromotionTypeFixed           = "FIXED"
	PromotionTypeFreeship        = "FREESHIP"
	PromotionTypeFreeshipPercent = "FREESHIP_PERCENTAGE"
)

type Promotion struct {
	DTO
	Code        string `gorm:"unique;not null" json:"code"` // Lưu dạng UPPER CASE
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Scope string  `gorm:"not null;default:'GLOBAL_ORDER'" json:"scope"` // GLOBAL_ORDER, SPECIFIC_ITEMS
	Type  string  `gorm:"not null" json:"type"`                         // PERCENTAGE, FIXED, FREESHIP, FREESHIP_PERCENTAGE
	Value float64 `gorm:"type:decimal(12,2);not null" json:"value"`

	MaxDiscount   *float64 `gorm:"type:decimal(12,2)" json:"maxDiscount"`
	MinOrderValue *float64 `gorm:"type:decimal(12,2)" json:"minOrderValue"`

	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`

	UsageLimit   *int `json:"usageLimit"`
	UsedCount    int  `gorm:"default:0" json:"usedCount"`
	PerUserLimit *int `json:"perUserLimit"`

	IsActive bool `gorm:"default:true" json:"isActive"`

	Targets []PromotionTarget `gorm:"foreignKey:PromotionId" json:"targets"`
}

type Promotions []Promotion

// PromotionTarget ghim mã giảm giá vào một sản phẩm hoặc biến thể cụ thể
type PromotionTarget struct {
	DTO
	PromotionId      uint     `gorm:"not null;index" json:"promotionId"`
	ProductId        uint     `gorm:"not null" json:"productId"`
	ProductVariantId *uint    `json:"productVariantId"`
	OverrideValue    *float64 `gorm:"type:decimal(12,2)" json:"overrideValue"`
}

type CreatePromotionInput struct {
	Code          string    `validate:"required,min=3,max=30" json:"code"`
	Name          string    `validate:"required" json:"name"`
	Description   string    `json:"description"`
	Scope         string    `validate:"required,oneof=GLOBAL_ORDER SPECIFIC_ITEMS" json:"scope"`
	Type          string    `validate:"required,oneof=PERCENTAGE FIXED FREESHIP FREESHIP_PERCENTAGE" json:"type"`
	Value         float64   `validate:"gte=0" json:"value"`
	MaxDiscount   *float64  `json:"maxDiscount"`
	MinOrderValue *float64  `json:"minOrderValue"`
	StartDate     time.Time `validate:"required" json:"startDate"`
	EndDate       time.Time `validate:"required" json:"endDate"`
	UsageLimit    *int      `json:"usageLimit"`
	PerUserLimit  *int      `json:"perUserLimit"`

	Targets []CreatePromotionTargetInput `json:"targets"`
}

type CreatePromotionTargetInput struct {
	ProductId        uint     `validate:"required" json:"productId"`
	ProductVariantId *uint    `json:"productVariantId"`
	OverrideValue    *float64 `json:"overrideValue"`
}

type EditPromotionInput struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Value         *float64   `json:"value,omitempty"`
	MaxDiscount   *float64   `json:"maxDiscount,omitempty"`
	MinOrderValue *float64   `json:"minOrderValue,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	UsageLimit    *int       `json:"usageLimit,omitempty"`
	PerUserLimit  *int       `json:"perUserLimit,omitempty"`
	IsActive      *bool      `json:"isActive,omitempty"`
}

type ValidatePromotionInput struct {
	Code     string          `validate:"required" json:"code"`
	Subtotal float64         `validate:"gte=0" json:"subtotal"`
	Items    []CartItemInput `json:"cartItems"`
}

// PromotionResult là kết quả định giá, evaluator không ghi gì vào DB
type PromotionResult struct {
	PromotionId       uint     `json:"promotionId"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Scope             string   `json:"scope"`
	Type              string   `json:"type"`
	Value             float64  `json:"value"`
	MaxDiscount       *float64 `json:"maxDiscount"`
	DiscountAmount    float64  `json:"discountAmount"`
	ShippingDiscount  float64  `json:"shippingDiscount"`
	AppliedToShipping bool     `json:"appliedToShipping"`
}

type FilterPromotion struct {
	Pagination
	SearchKey string `json:"searchKey"`
	IsActive  *bool  `json:"isActive"`
}
