package validate

import (
	"shop_manager/model"
	"shop_manager/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RejectOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.RejectOrderInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		input.Reason = strings.TrimSpace(input.Reason)
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, "Lý do từ chối không được để trống", err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func UpdateOrderStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.UpdateOrderStatusInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		input.Status = strings.ToUpper(strings.TrimSpace(input.Status))
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, "Trạng thái không hợp lệ", err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CheckoutInput
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
