package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	resp "user-management/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json"
	BindNone Binder = "none"
)

// 错误体的 key
type BodyKey string

const (
	KeyError   BodyKey = "error"
	KeyMessage BodyKey = "message"
)

// AErr 统一错误对象，Status 即 HTTP 状态码
type AErr struct {
	Status int
	Key    BodyKey
	Msg    string
	Err    error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return resp.Text(e.Status)
}

func (e *AErr) Unwrap() error { return e.Err }

func (e *AErr) body() any {
	if e.Key == KeyMessage {
		return resp.Message(e.Error())
	}
	return resp.Error(e.Status, e.Error())
}

// BadRequest 也可直接作为 ErrorMapper 的返回值
func BadRequest(msg string) *AErr { return &AErr{Status: http.StatusBadRequest, Key: KeyError, Msg: msg} }

// NotFound 以 {"message": ...} 返回
func NotFound(msg string) error { return &AErr{Status: http.StatusNotFound, Key: KeyMessage, Msg: msg} }

// Internal msg 为空时对外暴露 err 文本
func Internal(msg string, err error) error {
	return &AErr{Status: http.StatusInternalServerError, Key: KeyError, Msg: msg, Err: err}
}

// ErrorMapper 把业务错误翻译成 *AErr，返回 nil 走默认 500
type ErrorMapper func(err error) *AErr

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int // 成功状态码，默认 200
	MapErr  ErrorMapper
	Handler func(c *gin.Context, in *I) (O, error)

	BindStatus int // 请求体绑定失败的状态码，默认 400
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	ok := a.Status
	if ok == 0 {
		ok = http.StatusOK
	}
	bindStatus := a.BindStatus
	if bindStatus == 0 {
		bindStatus = http.StatusBadRequest
	}
	h := func(c *gin.Context) {
		var in I
		if a.Binder == BindJSON {
			if err := c.ShouldBindJSON(&in); err != nil {
				writeErr(c, &AErr{Status: bindStatus, Key: KeyError, Msg: err.Error()}, nil)
				return
			}
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			writeErr(c, err, a.MapErr)
			return
		}
		c.JSON(ok, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func writeErr(c *gin.Context, err error, mapErr ErrorMapper) {
	_ = c.Error(err)
	var ae *AErr
	if !errors.As(err, &ae) && mapErr != nil {
		ae = mapErr(err)
	}
	if ae == nil {
		ae = &AErr{Status: http.StatusInternalServerError, Key: KeyError, Err: err}
	}
	c.AbortWithStatusJSON(ae.Status, ae.body())
}
