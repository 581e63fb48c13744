package handler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"shop_manager/constants"
	"shop_manager/database"
	"shop_manager/helper"
	"shop_manager/model"
	"shop_manager/utils"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GetCategories(c *fiber.Ctx) error {
	db := database.DB
	var categories []model.Category
	if err := db.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, categories)
}

func CreateCategory(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(model.CreateCategoryInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	category := model.Category{
		Name:     input.Name,
		Slug:     helper.GenerateUniqueCategorySlug(db, input.Name),
		IsActive: true,
	}
	if err := db.Create(&category).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể tạo danh mục", err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, category)
}

func DeleteCategory(c *fiber.Ctx) error {
	db := database.DB
	_, isAdmin, _, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	categoryId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var category model.Category
	if err := db.First(&category, categoryId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	// Danh mục còn sản phẩm thì chỉ ẩn đi, không xóa
	var productCount int64
	db.Model(&model.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
	if productCount > 0 {
		db.Model(&category).Update("is_active", false)
		return utils.SuccessResponse(c, fiber.StatusOK, "Danh mục đã được ẩn vì vẫn còn sản phẩm")
	}

	if err := db.Delete(&category).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Xóa danh mục thành công")
}

func GetProducts(c *fiber.Ctx) error {
	filterInput := new(model.FilterProduct)
	if err := c.QueryParser(filterInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INPUT, err)
	}

	db := database.DB
	condition := db.Model(&model.Product{})

	if filterInput.SearchKey != "" {
		condition = condition.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filterInput.SearchKey)+"%")
	}
	if filterInput.CategoryId != nil {
		condition = condition.Where("category_id = ?", *filterInput.CategoryId)
	}
	if filterInput.MinPrice != nil {
		condition = condition.Where("price >= ?", *filterInput.MinPrice)
	}
	if filterInput.MaxPrice != nil {
		condition = condition.Where("price <= ?", *filterInput.MaxPrice)
	}
	if filterInput.IsActive != nil {
		condition = condition.Where("is_active = ?", *filterInput.IsActive)
	} else {
		condition = condition.Where("is_active = ?", true)
	}

	var totalCount int64
	condition.Count(&totalCount)

	condition = utils.ApplyPagination(condition, filterInput.Limit, filterInput.Page)

	var products model.Products
	condition.Preload("Category").Preload("Images").Preload("Variants").
		Order("id DESC").Find(&products)

	response := &model.ResponseCustom{
		Rows:       products,
		Limit:      filterInput.Limit,
		Page:       filterInput.Page,
		TotalCount: totalCount,
	}
	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

func GetProductBySlug(c *fiber.Ctx) error {
	db := database.DB
	productSlug := c.Params("slug")

	var product model.Product
	if err := db.Preload("Category").Preload("Images").Preload("Variants").
		Where("slug = ?", productSlug).First(&product).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, product)
}

func GetProductById(c *fiber.Ctx) error {
	db := database.DB
	productId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var product model.Product
	if err := db.Preload("Category").Preload("Images").Preload("Variants").
		First(&product, productId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, product)
}

func CreateProduct(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(model.CreateProductInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	var category model.Category
	if err := db.First(&category, input.CategoryId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Danh mục không tồn tại", err)
	}

	var product model.Product
	err := db.Transaction(func(tx *gorm.DB) error {
		product = model.Product{
			Name:        input.Name,
			Slug:        helper.GenerateUniqueProductSlug(tx, input.Name),
			Description: input.Description,
			Price:       input.Price,
			Stock:       input.Stock,
			CategoryId:  input.CategoryId,
			IsActive:    true,
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}

		for _, v := range input.Variants {
			variant := model.ProductVariant{
				ProductId: product.ID,
				Sku:       v.Sku,
				Color:     v.Color,
				Size:      v.Size,
				Price:     v.Price,
				Stock:     v.Stock,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể tạo sản phẩm", err)
	}

	db.Preload("Category").Preload("Variants").First(&product, product.ID)
	return utils.SuccessResponse(c, fiber.StatusCreated, product)
}

func EditProduct(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(model.EditProductInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	productId, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	var product model.Product
	if err := db.First(&product, productId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	if input.Name != nil && *input.Name != product.Name {
		product.Name = *input.Name
		product.Slug = helper.GenerateUniqueProductSlug(db, *input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.CategoryId != nil {
		var category model.Category
		if err := db.First(&category, *input.CategoryId).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Danh mục không tồn tại", err)
		}
		product.CategoryId = *input.CategoryId
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := db.Save(&product).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Không thể cập nhật sản phẩm", err)
	}

	db.Preload("Category").Preload("Images").Preload("Variants").First(&product, product.ID)
	return utils.SuccessResponse(c, fiber.StatusOK, product)
}

// DeleteProducts xóa nhiều sản phẩm. Sản phẩm đã có đơn hàng thì chỉ ẩn đi
// để giữ lịch sử.
func DeleteProducts(c *fiber.Ctx) error {
	db := database.DB
	deleteInput, ok := c.Locals("deleteIds").(model.ArrayId)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("PARSE DATA TO LOCALS FAIL"))
	}
	_, isAdmin, _, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	var deleted, hidden []uint
	for _, productId := range deleteInput.IDs {
		var product model.Product
		if err := db.First(&product, productId).Error; err != nil {
			continue
		}

		var itemCount int64
		db.Model(&model.OrderItem{}).Where("product_id = ?", product.ID).Count(&itemCount)
		if itemCount > 0 {
			db.Model(&product).Update("is_active", false)
			hidden = append(hidden, product.ID)
			continue
		}

		if err := db.Select("Images", "Variants").Delete(&product).Error; err == nil {
			deleted = append(deleted, product.ID)
		}
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"deleted": deleted,
		"hidden":  hidden,
	})
}

// GenerateSignature cấp chữ ký để frontend upload thẳng lên Cloudinary
func GenerateSignature(c *fiber.Ctx) error {
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}

	type SigParams struct {
		Folder       string `json:"folder"`
		PublicID     string `json:"public_id"`
		ResourceType string `json:"resource_type"` // Parse but don't sign
	}

	var params SigParams
	if err := c.BodyParser(&params); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Params không hợp lệ", err)
	}

	timestamp := time.Now().Unix()
	timestampStr := fmt.Sprintf("%d", timestamp)

	paramMap := make(map[string]string)
	if params.Folder != "" {
		paramMap["folder"] = params.Folder
	}
	if params.PublicID != "" {
		paramMap["public_id"] = params.PublicID
	}
	paramMap["timestamp"] = timestampStr

	// Sort keys alphabetically
	keys := make([]string, 0, len(paramMap))
	for k := range paramMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build stringToSign manually (raw values, no URL encoding)
	var stringToSign strings.Builder
	for i, k := range keys {
		if i > 0 {
			stringToSign.WriteString("&")
		}
		stringToSign.WriteString(k)
		stringToSign.WriteString("=")
		stringToSign.WriteString(paramMap[k])
	}
	stringToSign.WriteString(os.Getenv("CLOUDINARY_API_SECRET"))

	h := sha1.New()
	h.Write([]byte(stringToSign.String()))
	signature := hex.EncodeToString(h.Sum(nil))

	return c.JSON(fiber.Map{
		"signature": signature,
		"timestamp": timestamp,
		"apiKey":    os.Getenv("CLOUDINARY_API_KEY"),
		"cloudName": os.Getenv("CLOUDINARY_CLOUD_NAME"),
	})
}

func UploadProductImages(c *fiber.Ctx) error {
	db := database.DB
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	productId, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var product model.Product
	if err := db.First(&product, productId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Không đọc được form upload", err)
	}
	files := form.File["images"]
	if len(files) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Chưa chọn ảnh nào", nil)
	}

	primaryIndex := -1
	if raw := c.FormValue("primaryIndex"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil {
			primaryIndex = idx
		}
	}

	cld := helper.InitCloudinary()

	var createdImages []model.ProductImage
	var failedFiles []fiber.Map

	for idx, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			failedFiles = append(failedFiles, fiber.Map{
				"filename": file.Filename,
				"error":    "Chỉ hỗ trợ JPG, PNG, WEBP",
			})
			continue
		}

		reader, err := file.Open()
		if err != nil {
			failedFiles = append(failedFiles, fiber.Map{
				"filename": file.Filename,
				"error":    "Không đọc được file",
			})
			continue
		}

		uploadResult, err := cld.Upload.Upload(context.Background(), reader, uploader.UploadParams{
			Folder:       "products",
			PublicID:     fmt.Sprintf("product_%d_%d_%d", product.ID, idx, time.Now().Unix()),
			ResourceType: "image",
		})
		reader.Close()
		if err != nil {
			failedFiles = append(failedFiles, fiber.Map{
				"filename": file.Filename,
				"error":    fmt.Sprintf("Upload thất bại: %v", err),
			})
			continue
		}

		image := model.ProductImage{
			ProductId: product.ID,
			Url:       &uploadResult.SecureURL,
			PublicId:  &uploadResult.PublicID,
			IsPrimary: idx == primaryIndex,
		}
		if image.IsPrimary {
			db.Model(&model.ProductImage{}).
				Where("product_id = ? AND is_primary = ?", product.ID, true).
				Update("is_primary", false)
		}
		if err := db.Create(&image).Error; err != nil {
			failedFiles = append(failedFiles, fiber.Map{
				"filename": file.Filename,
				"error":    "Không lưu được vào DB",
			})
			continue
		}
		createdImages = append(createdImages, image)
	}

	return c.JSON(fiber.Map{
		"message": "Upload ảnh sản phẩm hoàn tất",
		"data": fiber.Map{
			"created": createdImages,
			"failed":  failedFiles,
		},
	})
}

func DeleteProductImage(c *fiber.Ctx) error {
	db := database.DB
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("not admin"))
	}

	imageId, err := strconv.Atoi(c.Params("imageId"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var image model.ProductImage
	if err := db.First(&image, imageId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	}

	if image.PublicId != nil {
		cld := helper.InitCloudinary()
		cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
			PublicID: *image.PublicId,
		})
	}

	if err := db.Delete(&image).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Xóa ảnh thành công")
}
