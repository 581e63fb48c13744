package validate

import (
	"errors"
	"shop_manager/model"
	"shop_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func CreatePromotion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreatePromotionInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		if !input.EndDate.After(input.StartDate) {
			return utils.ErrorResponse(c, 400, "Ngày kết thúc phải sau ngày bắt đầu", errors.New("endDate <= startDate"))
		}
		if input.Scope == model.PromotionScopeSpecificItems && len(input.Targets) == 0 {
			return utils.ErrorResponse(c, 400, "Mã theo sản phẩm phải có ít nhất một sản phẩm áp dụng", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func EditPromotion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.EditPromotionInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func ValidatePromotion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ValidatePromotionInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}
