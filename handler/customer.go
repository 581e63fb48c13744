package handler

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jordan-wright/email"
)

func RegisterCustomer(c *fiber.Ctx) error {
	db := database.DB

	// Lấy input từ locals (đã validate ở middleware)
	customerInput, ok := c.Locals("RegisterCustomer").(model.RegisterCustomerInput)
	if !ok {
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil, "general")
	}

	var existingUser model.Customer
	if err := db.Where("user_name = ?", customerInput.UserName).First(&existingUser).Error; err == nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, "Tên đăng nhập đã được sử dụng", nil, "username")
	}

	// 1. Kiểm tra số điện thoại đã tồn tại
	isPhoneUsed, err := helper.CheckByPhoneCustomer(customerInput.Phone, nil)
	if err != nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err, "phone")
	}
	if isPhoneUsed {
		return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, "Số điện thoại đã tồn tại", nil, "phone")
	}

	// 2. Kiểm tra email đã tồn tại
	isEmailUsed, err := helper.CheckByEmailCustomer(customerInput.Email, nil)
	if err != nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err, "email")
	}
	if isEmailUsed {
		return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, "Email đã tồn tại", nil, "email")
	}

	hash, err := helper.HashPassword(customerInput.Password)
	if err != nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err, "password")
	}

	newCustomer := new(model.Customer)
	copier.Copy(&newCustomer, &customerInput)
	newCustomer.Password = hash
	newCustomer.IsActive = true

	if err := db.Create(&newCustomer).Error; err != nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, "Không thể tạo tài khoản", err, "general")
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"id":       newCustomer.ID,
		"email":    newCustomer.Email,
		"username": newCustomer.UserName,
	})
}

func CustomerLogin(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	loginRequest := new(LoginRequest)

	if err := c.BodyParser(loginRequest); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
	}

	// Manual validation
	if loginRequest.Email == "" || loginRequest.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, errors.New("email and password are required"))
	}

	customerModel, err := helper.GetCustomerByEmail(loginRequest.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if customerModel == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.INVALID_EMAIL, errors.New("customer not exists"))
	}

	if !helper.CheckPasswordHash(loginRequest.Password, customerModel.Password) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.INVALID_PASSWORD, errors.New("password does not match email"))
	}

	if !customerModel.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.ACCOUNT_NOT_ACTIVE, errors.New("active false"))
	}

	tokenClaim := model.TokenClaim{
		CustomerId: customerModel.ID,
		Username:   customerModel.Email,
	}
	token, err := helper.GenerateAccessToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	refreshToken, err := helper.GenerateRefreshToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"accessToken":  token,
		"refreshToken": refreshToken,
		"customer": fiber.Map{
			"id":       customerModel.ID,
			"email":    customerModel.Email,
			"username": customerModel.UserName,
		},
	})
}

func RefreshCustomerToken(c *fiber.Ctx) error {
	type RefreshTokenRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	token, err := helper.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	claim, customer := helper.GetInfoCustomerFromTokenValue(token)
	if claim.CustomerId == 0 || customer.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	newAccessToken, err := helper.GenerateAccessToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"accessToken": newAccessToken})
}

func GetCurrentCustomer(c *fiber.Ctx) error {
	customer, ok := c.Locals("customer").(*model.Customer)
	if !ok || customer == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, customer)
}

func ChangePasswordCustomer(c *fiber.Ctx) error {
	changeInput, ok := c.Locals("ChangePassword").(model.CustomerChangePassword)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	customer, ok := c.Locals("customer").(*model.Customer)
	if !ok || customer == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}

	if !helper.CheckPasswordHash(changeInput.CurrentPassword, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Mật khẩu hiện tại không đúng", nil)
	}

	hash, err := helper.HashPassword(changeInput.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	db := database.DB
	if err := db.Model(&model.Customer{}).Where("id = ?", customer.ID).Update("password", hash).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Đổi mật khẩu thất bại", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Đổi mật khẩu thành công")
}

func ForgotPassword(c *fiber.Ctx) error {
	db := database.DB
	EmailInput, ok := c.Locals("ForgotPassword").(model.ForgotPasswordRequest)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	var customer model.Customer
	if err := db.Where("email = ?", EmailInput.Email).First(&customer).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Email không tồn tại"})
	}

	// Tạo token khôi phục, hiệu lực 30 phút
	token := uuid.New().String()
	resetToken := model.PasswordResetToken{
		CustomerId: customer.ID,
		Token:      token,
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}
	if err := db.Create(&resetToken).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// Gửi email với liên kết khôi phục
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", os.Getenv("APP_URL"), token)
	e := email.NewEmail()
	e.From = os.Getenv("SMTP_FROM")
	e.To = []string{EmailInput.Email}
	e.Subject = "Khôi phục mật khẩu"
	e.Text = []byte(fmt.Sprintf("Nhấp vào liên kết để đặt lại mật khẩu: %s", resetLink))
	err := e.Send(os.Getenv("SMTP_HOST")+":587", smtp.PlainAuth("", os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_HOST")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Không thể gửi email"})
	}

	return c.JSON(fiber.Map{"message": "Liên kết khôi phục đã được gửi tới email"})
}

func ResetPassword(c *fiber.Ctx) error {
	db := database.DB
	ResetInput, ok := c.Locals("ResetPassword").(model.ResetPasswordRequest)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	// Kiểm tra token
	var resetToken model.PasswordResetToken
	if err := db.Where("token = ? AND expires_at > ?", ResetInput.Token, time.Now()).First(&resetToken).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Token không hợp lệ hoặc đã hết hạn"})
	}

	// Tìm khách hàng
	var customer model.Customer
	if err := db.First(&customer, resetToken.CustomerId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	hash, err := helper.HashPassword(ResetInput.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	customer.Password = hash
	if err := db.Save(&customer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Đặt lại mật khẩu thất bại", err)
	}

	// Token dùng một lần
	db.Delete(&resetToken)

	return c.JSON(fiber.Map{"message": "Đặt lại mật khẩu thành công"})
}
