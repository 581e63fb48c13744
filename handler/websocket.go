package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"shop_manager/database"
	"shop_manager/model"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

var redisClient = redis.NewClient(&redis.Options{Addr: redisAddr()})

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// Kênh 0 là kênh chung cho admin, kênh khác theo customerId
func notifyChannel(customerId uint) string {
	if customerId == 0 {
		return "notify:admin"
	}
	return fmt.Sprintf("notify:customer:%d", customerId)
}

// NotificationWebsocket đẩy thông báo realtime qua WS. Kết nối theo
// customerId, id = 0 là feed của admin. Fan-out giữa các instance đi qua
// Redis pub/sub.
func NotificationWebsocket(c *websocket.Conn) {
	idStr := c.Params("customerId")
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		log.Printf("Invalid customerId: %s", idStr)
		c.Close()
		return
	}
	customerId := uint(id64)
	defer c.Close()

	// Gửi ngay các thông báo chưa đọc cho client mới connect
	var unread model.Notifications
	query := database.DB.Where("is_read = ?", false)
	if customerId == 0 {
		query = query.Where("customer_id IS NULL")
	} else {
		query = query.Where("customer_id = ?", customerId)
	}
	if err := query.Order("id DESC").Limit(50).Find(&unread).Error; err == nil {
		c.WriteJSON(unread)
	}

	// Mỗi kết nối giữ một subscription riêng và chỉ ghi vào chính nó,
	// client mở nhiều kết nối không nhận trùng thông báo
	pubsub := redisClient.Subscribe(context.Background(), notifyChannel(customerId))
	defer pubsub.Close()

	forwardNotifications(c, pubsub.Channel())
}

type notifySink interface {
	WriteMessage(messageType int, data []byte) error
}

// forwardNotifications chép thông báo từ kênh sub vào đúng kết nối đã sub,
// dừng khi client đóng kết nối
func forwardNotifications(conn notifySink, ch <-chan *redis.Message) {
	for msg := range ch {
		if conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)) != nil {
			return
		}
	}
}

// publishNotification lưu thông báo rồi đẩy qua Redis. Lỗi Redis chỉ log,
// không chặn nghiệp vụ chính.
func publishNotification(n model.Notification) {
	if err := database.DB.Create(&n).Error; err != nil {
		log.Printf("Lỗi lưu thông báo: %v", err)
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return
	}

	target := uint(0)
	if n.CustomerId != nil {
		target = *n.CustomerId
	}
	if err := redisClient.Publish(context.Background(), notifyChannel(target), payload).Err(); err != nil {
		log.Printf("Lỗi publish thông báo: %v", err)
	}
}

// NotifyNewOrder báo cho admin có đơn mới sau checkout
func NotifyNewOrder(order *model.Order) {
	publishNotification(model.Notification{
		OrderCode: order.PublicCode,
		Title:     "Đơn hàng mới",
		Message:   fmt.Sprintf("Đơn %s vừa được tạo, tổng tiền %.0fđ", order.PublicCode, order.TotalAmount),
		Type:      "ORDER_STATUS",
	})
}

// NotifyNewOrderEvent báo cho admin một sự kiện bất kỳ trên đơn
func NotifyNewOrderEvent(order *model.Order, title, message string) {
	publishNotification(model.Notification{
		OrderCode: order.PublicCode,
		Title:     title,
		Message:   message,
		Type:      "ORDER_STATUS",
	})
}

// NotifyOrderStatus báo cho khách khi đơn của họ đổi trạng thái.
// Đơn của khách vãng lai không có feed, chỉ nhận email.
func NotifyOrderStatus(order *model.Order, title, message string) {
	if order.CustomerID == nil {
		return
	}
	publishNotification(model.Notification{
		CustomerId: order.CustomerID,
		OrderCode:  order.PublicCode,
		Title:      title,
		Message:    message,
		Type:       "ORDER_STATUS",
	})
}
