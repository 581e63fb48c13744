package utils

// IsValidValueOfConstant kiểm tra giá trị có nằm trong danh sách hằng cho phép
func IsValidValueOfConstant(value string, constantValues []string) bool {
	for _, v := range constantValues {
		if v == value {
			return true
		}
	}
	return false
}
