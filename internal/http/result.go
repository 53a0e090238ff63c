package httpapi

import "net/http"

// 响应码与 wisefido 前端约定一致：2000 成功，-1 失败
const (
	ResultSuccess = 2000
	ResultError   = -1

	resultTypeSuccess = "success"
	resultTypeError   = "error"
)

// Result 统一响应包装
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: resultTypeSuccess, Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: resultTypeError, Message: message}
}

func writeOk[T any](w http.ResponseWriter, result T) {
	writeJSON(w, http.StatusOK, Ok(result))
}

// writeFail 失败响应，HTTP 状态码与 Result.code 分开表达
func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Fail(message))
}
