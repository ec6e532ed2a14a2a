// Package resp 提供统一的HTTP JSON响应封装。
// 所有API出口共用同一个响应信封，业务码与HTTP状态码分离维护。
package resp

import (
	"encoding/json"
	"net/http"
)

// Code 定义业务响应码
type Code int

// 约定的业务码集合
const (
	CodeOK              Code = 0
	CodeInvalidParam    Code = 40001
	CodeUnauthorized    Code = 40101
	CodeNotFound        Code = 40401
	CodeTooManyRequests Code = 42901
	CodeInternalError   Code = 50001
	CodeTimeout         Code = 50401
)

// Response 表示统一响应信封
type Response struct {
	Code      Code   `json:"code"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteJSON 以给定HTTP状态码写出响应信封
func WriteJSON(w http.ResponseWriter, status int, r *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(r)
}

// OK 写出成功响应
func OK(w http.ResponseWriter, data any, requestID, traceID string) {
	WriteJSON(w, http.StatusOK, &Response{
		Code:      CodeOK,
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// Error 写出错误响应
func Error(w http.ResponseWriter, status int, code Code, message, requestID, traceID string) {
	WriteJSON(w, status, &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// HTTPStatusFromCode 将业务码映射为默认HTTP状态码
func HTTPStatusFromCode(code Code) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
