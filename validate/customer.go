package validate

import (
	"shop_manager/model"
	"shop_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func RegisterCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.RegisterCustomerInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, 400, "Dữ liệu không hợp lệ", err, "general")
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponseHaveKey(c, 400, err.Error(), err, "general")
		}
		c.Locals("RegisterCustomer", input)
		return c.Next()
	}
}

func ChangePasswordCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CustomerChangePassword
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		if input.NewPassword != input.RepeatPassword {
			return utils.ErrorResponse(c, 400, "Mật khẩu nhập lại không khớp", nil)
		}
		c.Locals("ChangePassword", input)
		return c.Next()
	}
}

func ForgetPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ForgotPasswordRequest
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		c.Locals("ForgotPassword", input)
		return c.Next()
	}
}

func RestPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ResetPasswordRequest
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		c.Locals("ResetPassword", input)
		return c.Next()
	}
}
