package validate

import (
	"errors"
	"shop_manager/constants"
	"shop_manager/model"
	"shop_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func CreateAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateAccountInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		roles := []string{constants.ROLE_ADMIN, constants.ROLE_MANAGER, constants.ROLE_STAFF}
		if !utils.IsValidValueOfConstant(input.Role, roles) {
			return utils.ErrorResponse(c, 400, "Vai trò không hợp lệ", errors.New("invalid role"))
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func AdminChangePassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.AdminChangePassword
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, "Dữ liệu không hợp lệ", err)
		}
		if input.NewPassword == "" || input.NewPassword != input.RepeatPassword {
			return utils.ErrorResponse(c, 400, "Mật khẩu nhập lại không khớp", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}
