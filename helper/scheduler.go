package helper

import (
	"log"
	"os"
	"shop_manager/database"
	"shop_manager/model"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

var orderScheduler *cron.Cron
var promotionScheduler gocron.Scheduler

const defaultPendingTimeoutMinutes = 30

// PendingTimeout thời hạn chờ thanh toán của đơn trả trước
func PendingTimeout() time.Duration {
	if v := os.Getenv("ORDER_PENDING_TIMEOUT_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultPendingTimeoutMinutes * time.Minute
}

// StartOrderScheduler hủy tự động đơn trả trước quá hạn thanh toán (mỗi 5 phút)
func StartOrderScheduler() {
	orderScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := orderScheduler.AddFunc("*/5 * * * *", func() {
		cancelled, err := AutoCancelStalePending(database.DB, PendingTimeout())
		if err != nil {
			log.Printf("Lỗi hủy đơn quá hạn: %v", err)
			return
		}
		if cancelled > 0 {
			log.Printf("Đã hủy %d đơn quá hạn thanh toán", cancelled)
		}
	})
	if err != nil {
		log.Printf("Lỗi khởi tạo scheduler: %v", err)
		return
	}

	orderScheduler.Start()
	log.Println("Scheduler hủy đơn quá hạn đã khởi động (mỗi 5 phút)")
}

// Dừng scheduler khi tắt server
func StopOrderScheduler() {
	if orderScheduler != nil {
		orderScheduler.Stop()
		log.Println("Scheduler hủy đơn đã dừng")
	}
}

// StartPromotionScheduler tắt các mã giảm giá đã qua end_date (00:05 hằng ngày)
func StartPromotionScheduler() {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.FixedZone("ICT", 7*3600)),
	)
	if err != nil {
		log.Fatal(err)
	}

	promotionScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(DeactivateExpiredPromotions),
	)
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	log.Println("Promotion scheduler started (00:05 ICT)")
}

func DeactivateExpiredPromotions() {
	result := database.DB.Model(&model.Promotion{}).
		Where("is_active = ? AND end_date < ?", true, time.Now()).
		Update("is_active", false)

	if result.Error != nil {
		log.Printf("Lỗi cập nhật mã giảm giá hết hạn: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Đã tắt %d mã giảm giá hết hạn", result.RowsAffected)
	}
}
