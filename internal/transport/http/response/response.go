package response

// ErrorBody 失败：{"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody 查询无结果：{"message": "..."}
type MessageBody struct {
	Message string `json:"message"`
}

// Error 空 msg 时按状态码取兜底文案
func Error(status int, msg string) ErrorBody {
	if msg == "" {
		msg = Text(status)
	}
	return ErrorBody{Error: msg}
}

func Message(msg string) MessageBody { return MessageBody{Message: msg} }
