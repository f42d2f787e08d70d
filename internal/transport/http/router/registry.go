package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 挂在公开分组（如 /login）
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// ProtectedModule 挂在按配置可能要求 token 的分组
type ProtectedModule interface{ MountProtected(*gin.RouterGroup) }

// 可选：数值越小越先挂，默认 100
type prioritizer interface{ Priority() int }

type Registry struct {
	mu        sync.RWMutex
	api       []APIModule
	protected []ProtectedModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register 按实现的接口分发；两者都不实现返回 false
func (r *Registry) Register(mod any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := false
	if m, is := mod.(APIModule); is {
		r.api = append(r.api, m)
		ok = true
	}
	if m, is := mod.(ProtectedModule); is {
		r.protected = append(r.protected, m)
		ok = true
	}
	return ok
}

func (r *Registry) Mount(public, protected *gin.RouterGroup) {
	r.mu.RLock()
	api := append([]APIModule(nil), r.api...)
	prot := append([]ProtectedModule(nil), r.protected...)
	r.mu.RUnlock()

	sort.SliceStable(api, func(i, j int) bool { return priorityOf(api[i]) < priorityOf(api[j]) })
	sort.SliceStable(prot, func(i, j int) bool { return priorityOf(prot[i]) < priorityOf(prot[j]) })
	for _, m := range api {
		m.MountAPI(public)
	}
	for _, m := range prot {
		m.MountProtected(protected)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
