package helper

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"os"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/model"
	"shop_manager/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GetUserByUsername(u string) (*model.Account, error) {
	db := database.DB
	var account model.Account
	if err := db.Where(&model.Account{Username: u}).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func GetCustomerByEmail(e string) (*model.Customer, error) {
	db := database.DB
	var customer model.Customer
	if err := db.Where(&model.Customer{Email: e}).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func Valid(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["customerId"] = tokenClaim.CustomerId
	claims["accountId"] = tokenClaim.AccountId
	claims["exp"] = time.Now().Add(time.Minute * 60).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func GenerateRefreshToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["customerId"] = tokenClaim.CustomerId
	claims["accountId"] = tokenClaim.AccountId
	claims["exp"] = time.Now().Add(time.Hour * 24 * 7).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Xác thực thuật toán ký là HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JwtSecret, nil
	})

	return token, err
}

// GetInfoAccountFromToken trả về claim + các cờ quyền ADMIN/MANAGER/STAFF
func GetInfoAccountFromToken(c *fiber.Ctx) (model.TokenClaim, bool, bool, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return model.TokenClaim{}, false, false, false
	}
	tokenClaim := token.Claims.(jwt.MapClaims)
	accountId, ok := tokenClaim["accountId"].(float64)
	if !ok || accountId == 0 {
		return model.TokenClaim{}, false, false, false
	}
	username, _ := tokenClaim["username"].(string)

	var account model.Account
	db := database.DB
	if err := db.First(&account, uint(accountId)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Account not found: id=%d", uint(accountId))
			utils.ErrorResponse(c, fiber.StatusUnauthorized, "Tài khoản không tồn tại", err)
		} else {
			log.Printf("Database query error for account: id=%d, error=%v", uint(accountId), err)
			utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		return model.TokenClaim{}, false, false, false
	}

	accountInfo := model.TokenClaim{
		AccountId: uint(accountId),
		Username:  username,
	}

	return accountInfo,
		account.Role == constants.ROLE_ADMIN,
		account.Role == constants.ROLE_MANAGER,
		account.Role == constants.ROLE_STAFF
}

// GetInfoCustomerFromTokenValue đọc claim từ token đã parse sẵn (dùng cho refresh token trong body)
func GetInfoCustomerFromTokenValue(token *jwt.Token) (model.TokenClaim, model.Customer) {
	var emptyCustomer model.Customer
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, emptyCustomer
	}

	customerIdFloat, ok := claims["customerId"].(float64)
	if !ok || customerIdFloat == 0 {
		return model.TokenClaim{}, emptyCustomer
	}

	claim := model.TokenClaim{CustomerId: uint(customerIdFloat)}
	if username, ok := claims["username"].(string); ok {
		claim.Username = username
	}

	var customer model.Customer
	if err := database.DB.First(&customer, claim.CustomerId).Error; err != nil {
		return claim, emptyCustomer
	}
	return claim, customer
}

func GetInfoCustomerFromToken(c *fiber.Ctx) (model.TokenClaim, model.Customer) {
	var emptyCustomer model.Customer
	var guestClaim = model.TokenClaim{
		CustomerId: 0,
		Username:   "",
	}

	u := c.Locals("user")
	if u == nil {
		return guestClaim, emptyCustomer
	}

	token, ok := u.(*jwt.Token)
	if !ok {
		return guestClaim, emptyCustomer
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return guestClaim, emptyCustomer
	}

	customerIdFloat, ok := claims["customerId"].(float64)
	if !ok || customerIdFloat == 0 {
		return guestClaim, emptyCustomer
	}

	claim := model.TokenClaim{
		CustomerId: uint(customerIdFloat),
	}
	if username, ok := claims["username"].(string); ok {
		claim.Username = username
	}

	var customer model.Customer
	if err := database.DB.First(&customer, claim.CustomerId).Error; err != nil {
		return claim, emptyCustomer
	}

	return claim, customer
}
