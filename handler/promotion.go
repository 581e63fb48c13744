package handler

import (
	"errors"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GetPromotions(c *fiber.Ctx) error {
	filterInput := new(model.FilterPromotion)
	if err := c.QueryParser(filterInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INPUT, err)
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	db := database.DB
	condition := db.Model(&model.Promotion{})

	if filterInput.SearchKey != "" {
		key := "%" + strings.ToLower(filterInput.SearchKey) + "%"
		condition = condition.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", key, key)
	}
	if filterInput.IsActive != nil {
		condition = condition.Where("is_active = ?", *filterInput.IsActive)
	}

	var totalCount int64
	condition.Count(&totalCount)

	condition = utils.ApplyPagination(condition, filterInput.Limit, filterInput.Page)

	var promotions model.Promotions
	condition.Preload("Targets").Order("id DESC").Find(&promotions)

	response := &model.ResponseCustom{
		Rows:       promotions,
		Limit:      filterInput.Limit,
		Page:       filterInput.Page,
		TotalCount: totalCount,
	}
	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

func GetPromotionDetail(c *fiber.Ctx) error {
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	promotionId, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	db := database.DB
	var promotion model.Promotion
	if err := db.Preload("Targets").First(&promotion, promotionId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PROMOTION_NOT_FOUND, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, promotion)
}

func CreatePromotion(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.CreatePromotionInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	db := database.DB
	code := strings.ToUpper(strings.TrimSpace(input.Code))

	var existing model.Promotion
	if err := db.Where("code = ?", code).First(&existing).Error; err == nil {
		return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, "Mã giảm giá đã tồn tại", nil, "code")
	}

	var promotion model.Promotion
	err := db.Transaction(func(tx *gorm.DB) error {
		promotion = model.Promotion{
			Code:          code,
			Name:          input.Name,
			Description:   input.Description,
			Scope:         input.Scope,
			Type:          input.Type,
			Value:         input.Value,
			MaxDiscount:   input.MaxDiscount,
			MinOrderValue: input.MinOrderValue,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			UsageLimit:    input.UsageLimit,
			PerUserLimit:  input.PerUserLimit,
			IsActive:      true,
		}
		if err := tx.Create(&promotion).Error; err != nil {
			return err
		}

		for _, t := range input.Targets {
			var product model.Product
			if err := tx.First(&product, t.ProductId).Error; err != nil {
				return errors.New("sản phẩm áp dụng không tồn tại")
			}
			if t.ProductVariantId != nil {
				var variant model.ProductVariant
				if err := tx.Where("id = ? AND product_id = ?", *t.ProductVariantId, t.ProductId).
					First(&variant).Error; err != nil {
					return errors.New("biến thể áp dụng không thuộc sản phẩm")
				}
			}
			target := model.PromotionTarget{
				PromotionId:      promotion.ID,
				ProductId:        t.ProductId,
				ProductVariantId: t.ProductVariantId,
				OverrideValue:    t.OverrideValue,
			}
			if err := tx.Create(&target).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể tạo mã giảm giá", err)
	}

	db.Preload("Targets").First(&promotion, promotion.ID)
	return utils.SuccessResponse(c, fiber.StatusCreated, promotion)
}

func EditPromotion(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.EditPromotionInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	promotionId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var promotion model.Promotion
	if err := db.First(&promotion, promotionId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PROMOTION_NOT_FOUND, err)
	}

	if input.Name != nil {
		promotion.Name = *input.Name
	}
	if input.Description != nil {
		promotion.Description = *input.Description
	}
	if input.Value != nil {
		promotion.Value = *input.Value
	}
	if input.MaxDiscount != nil {
		promotion.MaxDiscount = input.MaxDiscount
	}
	if input.MinOrderValue != nil {
		promotion.MinOrderValue = input.MinOrderValue
	}
	if input.StartDate != nil {
		promotion.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		promotion.EndDate = *input.EndDate
	}
	if input.UsageLimit != nil {
		promotion.UsageLimit = input.UsageLimit
	}
	if input.PerUserLimit != nil {
		promotion.PerUserLimit = input.PerUserLimit
	}
	if input.IsActive != nil {
		promotion.IsActive = *input.IsActive
	}

	if !promotion.EndDate.After(promotion.StartDate) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Ngày kết thúc phải sau ngày bắt đầu", errors.New("endDate <= startDate"))
	}

	if err := db.Save(&promotion).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể cập nhật mã giảm giá", err)
	}

	db.Preload("Targets").First(&promotion, promotion.ID)
	return utils.SuccessResponse(c, fiber.StatusOK, promotion)
}

// DeletePromotion tắt mã đang dùng thay vì xóa, để giữ lịch sử đơn hàng
func DeletePromotion(c *fiber.Ctx) error {
	_, isAdmin, _, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	promotionId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var promotion model.Promotion
	if err := db.First(&promotion, promotionId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PROMOTION_NOT_FOUND, err)
	}

	if promotion.UsedCount > 0 {
		db.Model(&promotion).Update("is_active", false)
		return utils.SuccessResponse(c, fiber.StatusOK, "Mã đã được tắt vì đã có đơn hàng sử dụng")
	}

	if err := db.Select("Targets").Delete(&promotion).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Xóa mã giảm giá thành công")
}

// ValidatePromotion kiểm tra mã cho giỏ hàng hiện tại, không tiêu lượt dùng
func ValidatePromotion(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.ValidatePromotionInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}

	var customerId *uint
	if id, ok := c.Locals("customerId").(uint); ok && id != 0 {
		customerId = &id
	}

	result, err := helper.ValidateAndPrice(database.DB, input.Code, input.Subtotal, input.Items, customerId)
	if err != nil {
		var promoErr *helper.PromotionError
		if errors.As(err, &promoErr) {
			status := fiber.StatusBadRequest
			if promoErr.Kind == helper.PromotionNotFound {
				status = fiber.StatusNotFound
			}
			return c.Status(status).JSON(fiber.Map{
				"status":  "error",
				"code":    promoErr.Kind,
				"message": promoErr.Message,
			})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, result)
}
