package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/fitforfun/internal/core/cache"
	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/core/service"
	"github.com/rl1809/fitforfun/internal/logger"
)

type Services struct {
	Users       *service.UserService
	Instructors *service.InstructorService
	Facilities  *service.FacilityService
	ShopItems   *service.ShopItemService
	Carts       *service.CartService
	Ratings     *service.RatingService
}

type HTTPHandler struct {
	svc     Services
	health  *HealthProber
	cache   *cache.Cache
	log     *zap.Logger
	timeout time.Duration
}

type ErrorBody struct {
	Code    domain.ErrorKind `json:"code"`
	Message string           `json:"message"`
}

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func NewHTTPHandler(svc Services, health *HealthProber, c *cache.Cache, log *zap.Logger, timeout time.Duration) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{svc: svc, health: health, cache: c, log: log, timeout: timeout}
}

// Router builds the gin engine with every route mounted.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestLogger(h.log), gin.Recovery(), h.requestTimeout())

	r.GET("/health", h.HealthCheck)

	users := r.Group("/users")
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.POST("", h.CreateUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
	users.POST("/:id/change-password", h.ChangePassword)

	instructors := r.Group("/instructors")
	instructors.GET("", h.ListInstructors)
	instructors.GET("/:id", h.GetInstructor)
	instructors.GET("/by-user/:userId", h.GetInstructorByUser)
	instructors.POST("", h.CreateInstructor)
	instructors.PUT("/:id", h.UpdateInstructor)
	instructors.DELETE("/:id", h.DeleteInstructor)
	instructors.POST("/:id/comments", h.addComment(domain.TargetInstructor))
	instructors.GET("/:id/comments", h.listComments(domain.TargetInstructor))
	instructors.POST("/:id/image", h.AttachInstructorImage)

	facilities := r.Group("/facilities")
	facilities.GET("", h.ListFacilities)
	facilities.GET("/:id", h.GetFacility)
	facilities.POST("", h.CreateFacility)
	facilities.PUT("/:id", h.UpdateFacility)
	facilities.DELETE("/:id", h.DeleteFacility)
	facilities.POST("/:id/instructors", h.AddFacilityInstructor)
	facilities.POST("/:id/comments", h.addComment(domain.TargetFacility))
	facilities.GET("/:id/comments", h.listComments(domain.TargetFacility))
	facilities.POST("/:id/image/:kind", h.AttachFacilityImage)

	shopItems := r.Group("/shop-items")
	shopItems.GET("", h.ListShopItems)
	shopItems.GET("/:id", h.GetShopItem)
	shopItems.POST("", h.CreateShopItem)
	shopItems.PUT("/:id", h.UpdateShopItem)
	shopItems.DELETE("/:id", h.DeleteShopItem)
	shopItems.POST("/:id/comments", h.addComment(domain.TargetShopItem))
	shopItems.GET("/:id/comments", h.listComments(domain.TargetShopItem))
	shopItems.POST("/:id/image", h.AttachShopItemImage)

	cart := r.Group("/cart")
	cart.GET("/:userId", h.GetCart)
	cart.POST("/:userId/items", h.AddCartItem)
	cart.DELETE("/:userId/items/:itemId", h.RemoveCartItem)
	cart.POST("/items/:itemId/increment", h.IncrementCartItem)
	cart.POST("/items/:itemId/decrement", h.DecrementCartItem)

	return r
}

func (h *HTTPHandler) requestTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	data := gin.H{"health": report}
	if h.cache != nil {
		data["cache"] = h.cache.Stats()
	}
	c.JSON(status, Response{Success: status == http.StatusOK, Data: data})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindEntityNotFound:
		return http.StatusNotFound
	case domain.KindDuplicateComment, domain.KindAlreadyExists:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope. Upstream failures are logged with their
// cause and answered with a generic message.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)

	msg := "internal error"
	var de *domain.Error
	if kind != domain.KindUpstreamFailure && errors.As(err, &de) {
		msg = de.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c, h.log).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{Error: &ErrorBody{Code: kind, Message: msg}})
}

func (h *HTTPHandler) badRequest(c *gin.Context, msg string, err error) {
	h.fail(c, domain.InvalidInput(msg, err))
}

func (h *HTTPHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, "invalid request body", err)
		return false
	}
	return true
}

func (h *HTTPHandler) bindFilter(c *gin.Context) (domain.ListFilter, bool) {
	var filter domain.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, "invalid query", err)
		return filter, false
	}
	return filter.Normalize(), true
}

func (h *HTTPHandler) addComment(kind domain.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := h.pathID(c, "id")
		if !valid {
			return
		}
		var req service.CommentRequest
		if !h.bindJSON(c, &req) {
			return
		}

		comment, err := h.svc.Ratings.AddComment(c.Request.Context(), domain.CommentTarget{Kind: kind, ID: id}, req)
		if err != nil {
			h.fail(c, err)
			return
		}
		ok(c, http.StatusCreated, comment)
	}
}

func (h *HTTPHandler) listComments(kind domain.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := h.pathID(c, "id")
		if !valid {
			return
		}

		comments, err := h.svc.Ratings.ListComments(c.Request.Context(), domain.CommentTarget{Kind: kind, ID: id})
		if err != nil {
			h.fail(c, err)
			return
		}
		ok(c, http.StatusOK, comments)
	}
}
