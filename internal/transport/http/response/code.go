package response

import "net/http"

// 固定文案，前端按原文展示
const (
	MsgUserNotFound        = "User not found"
	MsgNoUsersFound        = "No users found"
	MsgNoDeletedUsersFound = "No deleted users found"
	MsgNoMatchingUsers     = "No matching users found"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInternal            = "Internal Server Error"
)

// StatusMsgMap 兜底文案
var StatusMsgMap = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusRequestEntityTooLarge: "Request Entity Too Large",
	http.StatusTooManyRequests:       "Too Many Requests",
	http.StatusInternalServerError:   MsgInternal,
	http.StatusServiceUnavailable:    "Service Unavailable",
	http.StatusGatewayTimeout:        "Gateway Timeout",
}

func Text(status int) string {
	if m, ok := StatusMsgMap[status]; ok {
		return m
	}
	return http.StatusText(status)
}
