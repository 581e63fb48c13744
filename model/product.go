package model

type Category struct {
	DTO
	Name     string    `gorm:"not null" validate:"required" json:"name"`
	Slug     string    `gorm:"uniqueIndex" json:"slug"`
	IsActive bool      `gorm:"default:true" json:"isActive"`
	Products []Product `gorm:"foreignKey:CategoryId" json:"products,omitempty"`
}

type Product struct {
	DTO
	Name        string  `gorm:"not null" json:"name"`
	Slug        string  `gorm:"uniqueIndex" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int     `gorm:"default:0" json:"stock"`
	IsActive    bool    `gorm:"default:true" json:"isActive"`

	CategoryId uint     `json:"categoryId"`
	Category   Category `gorm:"foreignKey:CategoryId" json:"category"`

	Images   []ProductImage   `gorm:"foreignKey:ProductId" json:"images"`
	Variants []ProductVariant `gorm:"foreignKey:ProductId" json:"variants"`
}

type Products []Product

// ProductVariant là một cấu hình mua được (màu/size...) với giá và tồn kho riêng
type ProductVariant struct {
	DTO
	ProductId uint    `gorm:"not null;index" json:"productId"`
	Sku       string  `gorm:"uniqueIndex" json:"sku"`
	Color     *string `json:"color"`
	Size      *string `json:"size"`
	Price     float64 `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock     int     `gorm:"default:0" json:"stock"`
}

type ProductImage struct {
	DTO
	ProductId uint    `gorm:"not null;index" json:"productId"`
	Url       *string `json:"url"`
	PublicId  *string `json:"publicId"`
	IsPrimary bool    `gorm:"default:false" json:"isPrimary"`
}

type CreateProductInput struct {
	Name        string               `validate:"required" json:"name"`
	Description string               `json:"description"`
	Price       float64              `validate:"required,gt=0" json:"price"`
	Stock       int                  `validate:"gte=0" json:"stock"`
	CategoryId  uint                 `validate:"required" json:"categoryId"`
	Variants    []CreateVariantInput `json:"variants"`
}

type CreateVariantInput struct {
	Sku   string  `validate:"required" json:"sku"`
	Color *string `json:"color"`
	Size  *string `json:"size"`
	Price float64 `validate:"required,gt=0" json:"price"`
	Stock int     `validate:"gte=0" json:"stock"`
}

type EditProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	CategoryId  *uint    `json:"categoryId,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

type CreateCategoryInput struct {
	Name string `validate:"required" json:"name"`
}

type FilterProduct struct {
	Pagination
	SearchKey  string   `json:"searchKey"`
	CategoryId *uint    `json:"categoryId"`
	MinPrice   *float64 `json:"minPrice"`
	MaxPrice   *float64 `json:"maxPrice"`
	IsActive   *bool    `json:"isActive"`
}
