package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// query 中按 key 打码
var sensitiveKeys = map[string]struct{}{
	"password": {}, "pwd": {}, "token": {}, "authorization": {},
	"secret": {}, "client_secret": {}, "access_token": {},
}

func maskQuery(kv url.Values) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
			continue
		}
		out[k] = v
	}
	return out
}

// AccessFields 作为 ginzap.Config.Context，补充 rid / 路由模板 / 打码后的 query / 响应大小
func AccessFields(c *gin.Context) []zapcore.Field {
	fields := []zapcore.Field{
		zap.String("rid", c.GetString(KeyRID)),
		zap.String("route", c.FullPath()),
		zap.Int("size", c.Writer.Size()),
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		fields = append(fields, zap.Any("query", maskQuery(q)))
	}
	if u := c.GetString(KeyUsername); u != "" {
		fields = append(fields, zap.String("user", u))
	}
	if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
		fields = append(fields, zap.String("err", errs.String()))
	}
	return fields
}
