package main

import (
	"log"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // ✅ cho phép upload tối đa 100MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173/",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()

	helper.StartOrderScheduler()
	defer helper.StopOrderScheduler()
	helper.StartPromotionScheduler()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":8002"))
}
