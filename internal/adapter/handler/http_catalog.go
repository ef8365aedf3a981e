package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/fitforfun/internal/core/domain"
	"github.com/rl1809/fitforfun/internal/core/service"
)

// instructors

func (h *HTTPHandler) ListInstructors(c *gin.Context) {
	filter, valid := h.bindFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Instructors.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *HTTPHandler) GetInstructor(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	in, err := h.svc.Instructors.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

func (h *HTTPHandler) GetInstructorByUser(c *gin.Context) {
	userID, valid := h.pathID(c, "userId")
	if !valid {
		return
	}
	in, err := h.svc.Instructors.GetByUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

func (h *HTTPHandler) CreateInstructor(c *gin.Context) {
	var req service.InstructorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	in, err := h.svc.Instructors.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, in)
}

func (h *HTTPHandler) UpdateInstructor(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.InstructorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	in, err := h.svc.Instructors.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

func (h *HTTPHandler) DeleteInstructor(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Instructors.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *HTTPHandler) AttachInstructorImage(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.ImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	in, err := h.svc.Instructors.AttachImage(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

// facilities

type AddInstructorRequest struct {
	InstructorID int64 `json:"instructor_id"`
}

func (h *HTTPHandler) ListFacilities(c *gin.Context) {
	filter, valid := h.bindFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.Facilities.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *HTTPHandler) GetFacility(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	f, err := h.svc.Facilities.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

func (h *HTTPHandler) CreateFacility(c *gin.Context) {
	var req service.FacilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	f, err := h.svc.Facilities.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

func (h *HTTPHandler) UpdateFacility(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.FacilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	f, err := h.svc.Facilities.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

func (h *HTTPHandler) DeleteFacility(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Facilities.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *HTTPHandler) AddFacilityInstructor(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req AddInstructorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	f, err := h.svc.Facilities.AddInstructor(c.Request.Context(), id, req.InstructorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

func (h *HTTPHandler) AttachFacilityImage(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.ImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	f, err := h.svc.Facilities.AttachImage(c.Request.Context(), id, domain.ImageKind(c.Param("kind")), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}

// shop items

func (h *HTTPHandler) ListShopItems(c *gin.Context) {
	filter, valid := h.bindFilter(c)
	if !valid {
		return
	}
	page, err := h.svc.ShopItems.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

func (h *HTTPHandler) GetShopItem(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	item, err := h.svc.ShopItems.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *HTTPHandler) CreateShopItem(c *gin.Context) {
	var req service.ShopItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.svc.ShopItems.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateShopItem(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.ShopItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.svc.ShopItems.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteShopItem(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.ShopItems.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *HTTPHandler) AttachShopItemImage(c *gin.Context) {
	id, valid := h.pathID(c, "id")
	if !valid {
		return
	}
	var req service.ImageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.svc.ShopItems.AttachImage(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}
