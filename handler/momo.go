package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"log"
	"net/url"
	"os"
	"shop_manager/model"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Momo Service
type Momo struct {
	Config model.MomoConfig
}

func NewMomo() *Momo {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Không tìm thấy file .env, dùng biến môi trường hệ thống...")
	}
	return &Momo{
		Config: model.MomoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			BaseURL:     os.Getenv("MOMO_URL"),
			ReturnURL:   os.Getenv("APP_URL") + "/momo/return",
			IPNURL:      os.Getenv("APP_URL") + "/momo/ipn",
		},
	}
}

// Tạo Payment URL
func (m *Momo) BuildPaymentUrl(req model.PaymentRequest) (string, error) {
	params := url.Values{}
	params.Add("partnerCode", m.Config.PartnerCode)
	params.Add("accessKey", m.Config.AccessKey)
	params.Add("amount", strconv.FormatInt(req.Amount, 10))
	params.Add("orderId", req.OrderCode)
	params.Add("orderInfo", req.OrderInfo)
	params.Add("returnUrl", m.Config.ReturnURL)
	params.Add("notifyUrl", m.Config.IPNURL)
	params.Add("requestId", req.OrderCode+"-"+strconv.FormatInt(time.Now().Unix(), 10))
	params.Add("requestType", "captureWallet")
	params.Add("extraData", "")

	// Sort & Hash
	query := params.Encode()
	hash, _ := m.generateHash(query)
	fullQuery := query + "&signature=" + hash

	return m.Config.BaseURL + "?" + fullQuery, nil
}

// Verify Return URL (Callback)
func (m *Momo) VerifyReturnUrl(query url.Values) model.PaymentResponse {
	signature := query.Get("signature")
	query.Del("signature")

	expectedHash, _ := m.generateHash(query.Encode())
	if signature != expectedHash {
		return model.PaymentResponse{IsSuccess: false, Message: "Invalid signature"}
	}

	if query.Get("resultCode") == "0" {
		amount, _ := strconv.ParseInt(query.Get("amount"), 10, 64)
		return model.PaymentResponse{
			IsSuccess: true,
			OrderCode: query.Get("orderId"),
			Amount:    amount,
			TransId:   query.Get("transId"),
		}
	}

	return model.PaymentResponse{IsSuccess: false, Message: "Payment failed"}
}

// Verify IPN (Server-to-Server)
func (m *Momo) VerifyIPN(query url.Values) model.PaymentResponse {
	signature := query.Get("signature")
	query.Del("signature")

	expectedHash, _ := m.generateHash(query.Encode())
	if signature != expectedHash {
		return model.PaymentResponse{IsSuccess: false, Message: "Invalid IPN signature"}
	}

	if query.Get("resultCode") == "0" {
		return model.PaymentResponse{
			IsSuccess: true,
			OrderCode: query.Get("orderId"),
			TransId:   query.Get("transId"),
		}
	}

	return model.PaymentResponse{IsSuccess: false, Message: "IPN failed"}
}

func (m *Momo) generateHash(data string) (string, error) {
	h := hmac.New(sha512.New, []byte(m.Config.SecretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil)), nil
}
