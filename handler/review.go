package handler

import (
	"errors"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/model"
	"shop_manager/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// CreateReview khách chỉ được đánh giá sản phẩm đã mua và đã nhận hàng
func CreateReview(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.CreateReviewInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	customerId, ok := c.Locals("customerId").(uint)
	if !ok || customerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}

	db := database.DB

	var product model.Product
	if err := db.First(&product, input.ProductId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	// Phải có đơn DELIVERED chứa sản phẩm này
	var purchased int64
	db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.customer_id = ? AND orders.status = ?",
			input.ProductId, customerId, model.OrderDelivered).
		Count(&purchased)
	if purchased == 0 {
		return utils.ErrorResponse(c, fiber.StatusForbidden,
			"Bạn cần mua và nhận sản phẩm trước khi đánh giá", errors.New("no delivered order with product"))
	}

	// Mỗi khách một đánh giá cho mỗi sản phẩm, đánh giá lại thì cập nhật
	var review model.Review
	if err := db.Where("product_id = ? AND customer_id = ?", input.ProductId, customerId).
		First(&review).Error; err == nil {
		review.Rating = input.Rating
		review.Comment = input.Comment
		if err := db.Save(&review).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, review)
	}

	review = model.Review{
		ProductId:  input.ProductId,
		CustomerId: customerId,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := db.Create(&review).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, review)
}

// GetProductReviews danh sách đánh giá của một sản phẩm, kèm điểm trung bình
func GetProductReviews(c *fiber.Ctx) error {
	productId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var reviews model.Reviews
	if err := db.Preload("Customer").
		Where("product_id = ?", productId).
		Order("id DESC").Find(&reviews).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var avgRating float64
	db.Model(&model.Review{}).Where("product_id = ?", productId).
		Select("COALESCE(AVG(rating), 0)").Scan(&avgRating)

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"reviews":   reviews,
		"avgRating": avgRating,
		"total":     len(reviews),
	})
}
