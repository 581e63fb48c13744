package model

type Review struct {
	DTO
	ProductId  uint     `gorm:"not null;index" json:"productId"`
	CustomerId uint     `gorm:"not null;index" json:"customerId"`
	Customer   Customer `gorm:"foreignKey:CustomerId" json:"customer"`
	Rating     int      `gorm:"not null" json:"rating"` // 1-5
	Comment    string   `gorm:"type:text" json:"comment"`
}

type Reviews []Review

type CreateReviewInput struct {
	ProductId uint   `validate:"required" json:"productId"`
	Rating    int    `validate:"required,min=1,max=5" json:"rating"`
	Comment   string `json:"comment"`
}
