package handler

import (
	"net/url"
	"shop_manager/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMomo() *Momo {
	return &Momo{Config: model.MomoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access-key",
		SecretKey:   "secret-key",
		BaseURL:     "https://test-payment.momo.vn/v2/gateway",
		ReturnURL:   "http://localhost:8002/momo/return",
		IPNURL:      "http://localhost:8002/momo/ipn",
	}}
}

func signedQuery(m *Momo, values url.Values) url.Values {
	hash, _ := m.generateHash(values.Encode())
	values.Set("signature", hash)
	return values
}

func TestMomoBuildPaymentUrl(t *testing.T) {
	m := testMomo()
	paymentUrl, err := m.BuildPaymentUrl(model.PaymentRequest{
		OrderCode: "ORD-ABCD1234",
		Amount:    500000,
		OrderInfo: "Thanh toán đơn hàng ORD-ABCD1234",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(paymentUrl)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "MOMOTEST", query.Get("partnerCode"))
	assert.Equal(t, "500000", query.Get("amount"))
	assert.Equal(t, "ORD-ABCD1234", query.Get("orderId"))
	assert.Equal(t, "captureWallet", query.Get("requestType"))
	assert.NotEmpty(t, query.Get("signature"))

	// Chữ ký khớp với chính query đã ký
	signature := query.Get("signature")
	query.Del("signature")
	expected, _ := m.generateHash(query.Encode())
	assert.Equal(t, expected, signature)
}

func TestMomoVerifyReturnUrl(t *testing.T) {
	m := testMomo()

	values := url.Values{}
	values.Set("orderId", "ORD-ABCD1234")
	values.Set("amount", "500000")
	values.Set("resultCode", "0")
	values.Set("transId", "2859403221")

	result := m.VerifyReturnUrl(signedQuery(m, values))
	assert.True(t, result.IsSuccess)
	assert.Equal(t, "ORD-ABCD1234", result.OrderCode)
	assert.Equal(t, int64(500000), result.Amount)
	assert.Equal(t, "2859403221", result.TransId)
}

func TestMomoVerifyReturnUrlRejectsTampered(t *testing.T) {
	m := testMomo()

	values := url.Values{}
	values.Set("orderId", "ORD-ABCD1234")
	values.Set("amount", "500000")
	values.Set("resultCode", "0")
	signed := signedQuery(m, values)

	// Sửa số tiền sau khi ký
	signed.Set("amount", "1000")
	result := m.VerifyReturnUrl(signed)
	assert.False(t, result.IsSuccess)
	assert.Equal(t, "Invalid signature", result.Message)
}

func TestMomoVerifyIPNFailedResult(t *testing.T) {
	m := testMomo()

	values := url.Values{}
	values.Set("orderId", "ORD-ABCD1234")
	values.Set("resultCode", "1006")

	result := m.VerifyIPN(signedQuery(m, values))
	assert.False(t, result.IsSuccess)
}
