package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management/internal/domain"
	"user-management/internal/transport/http/ez"
	resp "user-management/internal/transport/http/response"
)

// UserService handler 依赖的业务面
type UserService interface {
	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	ImportAll(ctx context.Context, ins []domain.UserInput) ([]domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListDeleted(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, in domain.UserInput) (*domain.User, error)
	SetDeleted(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error)
}

type UserHandler struct {
	svc UserService
	// 空列表是否按 404 返回
	emptyNotFound bool
}

func NewUserHandler(svc UserService, emptyNotFound bool) *UserHandler {
	return &UserHandler{svc: svc, emptyNotFound: emptyNotFound}
}

type bulkIn struct {
	IDs    []string `json:"ids"    binding:"required"`
	Delete *bool    `json:"delete" binding:"required"`
}

type addAllIn struct {
	Users []domain.UserInput `json:"users" binding:"required"`
}

type addAllOut struct {
	Success       bool          `json:"success"`
	InsertedUsers []domain.User `json:"insertedUsers"`
}

// validationOr400 校验/唯一性冲突 → 400，其余按 fallback
func validationOr400(notFound string, fallback func(error) *ez.AErr) ez.ErrorMapper {
	return func(err error) *ez.AErr {
		if _, ok := domain.AsValidation(err); ok {
			return ez.BadRequest(err.Error())
		}
		if notFound != "" && errors.Is(err, domain.ErrNotFound) {
			return &ez.AErr{Status: http.StatusNotFound, Key: ez.KeyMessage, Msg: notFound}
		}
		if fallback != nil {
			return fallback(err)
		}
		return nil
	}
}

func (h *UserHandler) Priority() int { return 10 }

func (h *UserHandler) MountProtected(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[domain.UserInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		// 任何失败都按 400 回
		MapErr: func(err error) *ez.AErr {
			return ez.BadRequest(err.Error())
		},
		Handler: func(c *gin.Context, in *domain.UserInput) (*domain.User, error) {
			return h.svc.Create(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			us, err := h.svc.List(c.Request.Context())
			if err != nil {
				return nil, err
			}
			return h.nonEmpty(us, resp.MsgNoUsersFound)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		MapErr: validationOr400(resp.MsgUserNotFound, nil),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[domain.UserInput, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		MapErr: validationOr400(resp.MsgUserNotFound, func(err error) *ez.AErr {
			return ez.BadRequest(err.Error())
		}),
		Handler: func(c *gin.Context, in *domain.UserInput) (*domain.User, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[bulkIn, *domain.BulkResult]{
		Method: http.MethodDelete,
		Path:   "/users/bulk",
		Binder: ez.BindJSON,
		MapErr: validationOr400(resp.MsgNoMatchingUsers, func(err error) *ez.AErr {
			return ez.BadRequest(err.Error())
		}),
		Handler: func(c *gin.Context, in *bulkIn) (*domain.BulkResult, error) {
			return h.svc.SetDeleted(c.Request.Context(), in.IDs, *in.Delete)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/deletedUsers",
		Binder: ez.BindNone,
		MapErr: func(error) *ez.AErr { return &ez.AErr{Status: http.StatusInternalServerError, Key: ez.KeyError, Msg: resp.MsgInternal} },
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			us, err := h.svc.ListDeleted(c.Request.Context())
			if err != nil {
				return nil, err
			}
			if len(us) == 0 {
				return nil, ez.NotFound(resp.MsgNoDeletedUsersFound)
			}
			return us, nil
		},
	})

	ez.RegisterAction(e, ez.Action[addAllIn, addAllOut]{
		Method:     http.MethodPost,
		Path:       "/addAll",
		Binder:     ez.BindJSON,
		Status:     http.StatusCreated,
		BindStatus: http.StatusInternalServerError, // 该路由的失败一律 500
		Handler: func(c *gin.Context, in *addAllIn) (addAllOut, error) {
			us, err := h.svc.ImportAll(c.Request.Context(), in.Users)
			if err != nil {
				return addAllOut{}, ez.Internal("", err)
			}
			return addAllOut{Success: true, InsertedUsers: us}, nil
		},
	})
}

func (h *UserHandler) nonEmpty(us []domain.User, msg string) ([]domain.User, error) {
	if len(us) == 0 {
		if h.emptyNotFound {
			return nil, ez.NotFound(msg)
		}
		return []domain.User{}, nil
	}
	return us, nil
}
