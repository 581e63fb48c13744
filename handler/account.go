package handler

import (
	"errors"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

func Me(c *fiber.Ctx) error {
	dataInfo, _, _, _ := helper.GetInfoAccountFromToken(c)
	accountId := dataInfo.AccountId

	db := database.DB
	var account model.Account
	if err := db.First(&account, accountId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, account)
}

func AdminChangePassword(c *fiber.Ctx) error {
	changePasswordInput, ok := c.Locals("input").(model.AdminChangePassword)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, _, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	db := database.DB
	var account model.Account
	if err := db.First(&account, changePasswordInput.AccountId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	newPasswordHash, err := helper.HashPassword(changePasswordInput.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}
	account.Password = newPasswordHash
	db.Save(&account)

	return utils.SuccessResponse(c, fiber.StatusOK, account)
}

func GetAccounts(c *fiber.Ctx) error {
	filterInput := new(model.FilterAccount)
	if err := c.QueryParser(filterInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INPUT, err)
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	db := database.DB

	condition := db.Model(&model.Account{})
	if filterInput.SearchKey != "" {
		condition = condition.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(filterInput.SearchKey)+"%")
	}
	if filterInput.Active != nil {
		condition = condition.Where("active = ?", filterInput.Active)
	}
	if filterInput.Role != nil {
		condition = condition.Where("role = ?", filterInput.Role)
	}

	var totalCount int64
	condition.Count(&totalCount)

	condition = utils.ApplyPagination(condition, filterInput.Limit, filterInput.Page)

	var accounts model.Accounts
	condition.Order("id ASC").Find(&accounts)
	response := &model.ResponseCustom{
		Rows:       accounts,
		Limit:      filterInput.Limit,
		Page:       filterInput.Page,
		TotalCount: totalCount,
	}
	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

func CreateAccount(c *fiber.Ctx) error {
	db := database.DB
	accountInput, ok := c.Locals("input").(model.CreateAccountInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, _, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	var existing model.Account
	if err := db.Where("username = ?", accountInput.Username).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Tên đăng nhập đã tồn tại", nil)
	}

	if accountInput.Password == "" {
		accountInput.Password = "123456"
	}

	hash, err := helper.HashPassword(accountInput.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	newAccount := new(model.Account)
	copier.Copy(&newAccount, &accountInput)
	newAccount.Password = hash
	newAccount.Active = true
	if err := db.Create(&newAccount).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể tạo tài khoản", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, newAccount)
}
