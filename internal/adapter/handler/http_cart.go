package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AddCartItemRequest struct {
	ShopItemID int64 `json:"shop_item_id"`
	Quantity   int   `json:"quantity"`
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	userID, valid := h.pathID(c, "userId")
	if !valid {
		return
	}
	cart, err := h.svc.Carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, cart)
}

func (h *HTTPHandler) AddCartItem(c *gin.Context) {
	userID, valid := h.pathID(c, "userId")
	if !valid {
		return
	}
	var req AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Carts.AddItem(c.Request.Context(), userID, req.ShopItemID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (h *HTTPHandler) RemoveCartItem(c *gin.Context) {
	userID, valid := h.pathID(c, "userId")
	if !valid {
		return
	}
	itemID, valid := h.pathID(c, "itemId")
	if !valid {
		return
	}
	cart, err := h.svc.Carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, cart)
}

func (h *HTTPHandler) IncrementCartItem(c *gin.Context) {
	itemID, valid := h.pathID(c, "itemId")
	if !valid {
		return
	}
	item, err := h.svc.Carts.IncrementQuantity(c.Request.Context(), itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *HTTPHandler) DecrementCartItem(c *gin.Context) {
	itemID, valid := h.pathID(c, "itemId")
	if !valid {
		return
	}
	result, err := h.svc.Carts.DecrementQuantity(c.Request.Context(), itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}
