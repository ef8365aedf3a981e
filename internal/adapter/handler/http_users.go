package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/fitforfun/internal/core/service"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	filter, valid := h.bindFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Users.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

// DeleteUser expects the current password in the pass query parameter.
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	pass := c.Query("pass")
	if pass == "" {
		h.badRequest(c, "pass is required", nil)
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), id, pass); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *HTTPHandler) ChangePassword(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.svc.Users.ChangePassword(c.Request.Context(), id, req); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}
