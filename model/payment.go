package model

type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	BaseURL     string
	ReturnURL   string
	IPNURL      string
}

type PaymentRequest struct {
	OrderCode string
	Amount    int64
	OrderInfo string
	IPAddr    string
}

type PaymentResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	OrderCode string `json:"orderCode"`
	Amount    int64  `json:"amount"`
	TransId   string `json:"transId"`
}

type CreatePaymentInput struct {
	OrderCode string `validate:"required" json:"orderCode"`
}
