package database

import (
	"fmt"
	"shop_manager/config"
	"shop_manager/model"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	p := config.Config("DB_PORT")
	port, err := strconv.ParseUint(p, 10, 32)

	if err != nil {
		panic("failed to parse database port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", config.Config("DB_HOST"), port, config.Config("DB_USER"), config.Config("DB_PASSWORD"), config.Config("DB_NAME"))
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		panic("failed to connect database")
	}

	fmt.Println("Connection Opened to Database")
	Migrate(DB)
	fmt.Println("Database Migrated")

	// khởi tạo dữ liệu
	SeedData(DB)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Account{},
		&model.Customer{},
		&model.PasswordResetToken{},
		&model.Category{},
		&model.Product{},
		&model.ProductVariant{},
		&model.ProductImage{},
		&model.Promotion{},
		&model.PromotionTarget{},
		&model.Order{},
		&model.OrderItem{},
		&model.Shipping{},
		&model.Notification{},
		&model.Review{},
	)
}
