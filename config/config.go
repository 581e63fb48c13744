package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config đọc biến môi trường, ưu tiên file .env nếu có
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Không tìm thấy file .env, dùng biến môi trường hệ thống...")
		}
	})
	return os.Getenv(key)
}
