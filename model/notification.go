package model

type Notification struct {
	DTO
	CustomerId *uint  `gorm:"index" json:"customerId"` // Null = thông báo cho admin
	OrderCode  string `json:"orderCode"`
	Title      string `gorm:"not null" json:"title"`
	Message    string `gorm:"type:text" json:"message"`
	Type       string `json:"type"` // ORDER_STATUS, PROMOTION, SYSTEM
	IsRead     bool   `gorm:"default:false" json:"isRead"`
}

type Notifications []Notification
