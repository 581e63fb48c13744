package constants

const (
	ROLE_ADMIN   = "ADMIN"
	ROLE_MANAGER = "MANAGER"
	ROLE_STAFF   = "STAFF"
)

const (
	ERROR_INTERNAL_ERROR       = "Lỗi hệ thống, vui lòng thử lại sau"
	ERROR_PARSE_DATA_TO_LOCALS = "Lỗi parse dữ liệu"
	DATA_INPUT_IS_NOT_NUMBER   = "Tham số phải là số"
	MISSING_LOGIN_INPUT        = "Thiếu tên đăng nhập hoặc mật khẩu"
	INVALID_USERNAME           = "Tên đăng nhập không tồn tại"
	INVALID_EMAIL              = "Email không tồn tại"
	INVALID_PASSWORD           = "Mật khẩu không đúng"
	ACCOUNT_NOT_ACTIVE         = "Tài khoản đã bị khóa"
	FORBIDDEN                  = "Không có quyền"
	NOT_ADMIN                  = "Bạn không có thẩm quyền"
	NOT_FOUND_RECORDS          = "Không tìm thấy dữ liệu"
	CAN_NOT_HASH_PASSWORD      = "Không thể mã hóa mật khẩu"
	ERROR_INPUT                = "Dữ liệu không hợp lệ"
	ORDER_NOT_FOUND            = "Không tìm thấy đơn hàng"
	PROMOTION_NOT_FOUND        = "Mã giảm giá không tồn tại"
)
