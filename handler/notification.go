package handler

import (
	"errors"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// GetMyNotifications thông báo của khách đang đăng nhập
func GetMyNotifications(c *fiber.Ctx) error {
	customerId, ok := c.Locals("customerId").(uint)
	if !ok || customerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}

	var notifications model.Notifications
	if err := database.DB.Where("customer_id = ?", customerId).
		Order("id DESC").Limit(100).Find(&notifications).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, notifications)
}

// GetAdminNotifications feed thông báo cho admin (customer_id IS NULL)
func GetAdminNotifications(c *fiber.Ctx) error {
	_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager && !isStaff {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	var notifications model.Notifications
	if err := database.DB.Where("customer_id IS NULL").
		Order("id DESC").Limit(100).Find(&notifications).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, notifications)
}

func MarkNotificationRead(c *fiber.Ctx) error {
	notificationId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	db := database.DB
	var notification model.Notification
	if err := db.First(&notification, notificationId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	// Thông báo của khách thì chỉ chủ thông báo được đánh dấu
	if notification.CustomerId != nil {
		customerId, _ := c.Locals("customerId").(uint)
		if customerId != *notification.CustomerId {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not notification owner"))
		}
	} else {
		_, isAdmin, isManager, isStaff := helper.GetInfoAccountFromToken(c)
		if !isAdmin && !isManager && !isStaff {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
		}
	}

	db.Model(&notification).Update("is_read", true)
	return utils.SuccessResponse(c, fiber.StatusOK, notification)
}

// MarkAllNotificationsRead đánh dấu đã đọc toàn bộ feed của khách
func MarkAllNotificationsRead(c *fiber.Ctx) error {
	customerId, ok := c.Locals("customerId").(uint)
	if !ok || customerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}

	result := database.DB.Model(&model.Notification{}).
		Where("customer_id = ? AND is_read = ?", customerId, false).
		Update("is_read", true)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, result.Error)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"updated": result.RowsAffected})
}
