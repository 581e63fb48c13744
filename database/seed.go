package database

import (
	"log"
	"shop_manager/constants"
	"shop_manager/model"
	"shop_manager/utils"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func parseDate(dateStr string) time.Time {
	t, _ := time.Parse("2006-01-02", dateStr)
	return t
}

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("123456cn"), 10)
	HashPassword := string(bytes)
	if err != nil {
		HashPassword = "123456cn"
	}
	accounts := []model.Account{
		{Username: "Administration", Password: HashPassword, Active: true, Role: constants.ROLE_ADMIN},
	}

	for _, account := range accounts {
		// Tạo mới nếu không tồn tại
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed data for account:", account.Username, "error:", err)
		}
	}

	categories := []model.Category{
		{Name: "Áo thun", Slug: "ao-thun", IsActive: true},
		{Name: "Áo khoác", Slug: "ao-khoac", IsActive: true},
		{Name: "Quần jeans", Slug: "quan-jeans", IsActive: true},
		{Name: "Phụ kiện", Slug: "phu-kien", IsActive: true},
	}
	for _, category := range categories {
		if err := db.Where(model.Category{Slug: category.Slug}).FirstOrCreate(&category).Error; err != nil {
			log.Println("failed to seed data for category:", category.Name, "error:", err)
		}
	}

	var tshirt model.Category
	db.Where(model.Category{Slug: "ao-thun"}).First(&tshirt)

	products := []model.Product{
		{
			Name:        "Áo thun basic cotton",
			Slug:        "ao-thun-basic-cotton",
			Description: "Áo thun cotton 100%, form regular",
			Price:       199000,
			Stock:       100,
			IsActive:    true,
			CategoryId:  tshirt.ID,
			Variants: []model.ProductVariant{
				{Sku: "ATB-DEN-M", Color: utils.StringPtr("Đen"), Size: utils.StringPtr("M"), Price: 199000, Stock: 40},
				{Sku: "ATB-DEN-L", Color: utils.StringPtr("Đen"), Size: utils.StringPtr("L"), Price: 199000, Stock: 35},
				{Sku: "ATB-TRANG-M", Color: utils.StringPtr("Trắng"), Size: utils.StringPtr("M"), Price: 199000, Stock: 25},
			},
		},
		{
			Name:        "Áo thun oversize",
			Slug:        "ao-thun-oversize",
			Description: "Form rộng, chất liệu dày dặn",
			Price:       249000,
			Stock:       60,
			IsActive:    true,
			CategoryId:  tshirt.ID,
		},
	}
	for _, product := range products {
		if err := db.Where(model.Product{Slug: product.Slug}).FirstOrCreate(&product).Error; err != nil {
			log.Println("failed to seed data for product:", product.Name, "error:", err)
		}
	}

	promotions := []model.Promotion{
		{
			Code:      "WELCOME10",
			Name:      "Giảm 10% cho đơn đầu tiên",
			Scope:     model.PromotionScopeGlobal,
			Type:      model.PromotionTypePercentage,
			Value:     10,
			StartDate: parseDate("2026-01-01"),
			EndDate:   parseDate("2026-12-31"),
			IsActive:  true,
		},
		{
			Code:      "FREESHIP50",
			Name:      "Miễn phí vận chuyển",
			Scope:     model.PromotionScopeGlobal,
			Type:      model.PromotionTypeFreeship,
			Value:     0,
			StartDate: parseDate("2026-01-01"),
			EndDate:   parseDate("2026-12-31"),
			IsActive:  true,
		},
	}
	for _, promotion := range promotions {
		if err := db.Where(model.Promotion{Code: promotion.Code}).FirstOrCreate(&promotion).Error; err != nil {
			log.Println("failed to seed data for promotion:", promotion.Code, "error:", err)
		}
	}
}
