package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string   `json:"endpoint" binding:"required"`
	P256DH   string   `json:"p256dh" binding:"required"`
	Auth     string   `json:"auth" binding:"required"`
	Topics   []string `json:"topics"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	for _, t := range req.Topics {
		if !model.ValidTopic(t) {
			badRequest(c, "unknown topic: "+t)
			return
		}
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.subscriptions.Put(c.Request.Context(), subscription, req.Topics); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	if err := h.subscriptions.Delete(c.Request.Context(), req.Endpoint); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without URL decoding; push endpoints
// are matched byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription's topics.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		badRequest(c, "endpoint is required")
		return
	}

	subscription, err := h.subscriptions.Get(c.Request.Context(), raw)
	if err != nil {
		abortWithError(c, err)
		return
	}

	topics := make([]string, len(subscription.Topics))
	for i, t := range subscription.Topics {
		topics[i] = t.Topic
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
