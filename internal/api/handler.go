package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/classify"
	"pallet-board-backend/internal/coordinator"
	"pallet-board-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	coord         *coordinator.Coordinator
	subscriptions store.SubscriptionStore
	webpush       *webpush.Options
	classifier    classify.Classifier // nil when scanning is disabled
}

// NewHandler creates a new API handler.
func NewHandler(coord *coordinator.Coordinator, subs store.SubscriptionStore, webpushOptions *webpush.Options, classifier classify.Classifier) *Handler {
	return &Handler{
		coord:         coord,
		subscriptions: subs,
		webpush:       webpushOptions,
		classifier:    classifier,
	}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrUnknownLocation),
		errors.Is(err, board.ErrRowNotFound),
		errors.Is(err, store.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidStatus),
		errors.Is(err, board.ErrInvalidFlux),
		errors.Is(err, board.ErrUnknownField),
		errors.Is(err, coordinator.ErrInvalidTheme):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrNoOrder):
		return http.StatusConflict
	case errors.Is(err, classify.ErrNothingExtracted),
		errors.Is(err, classify.ErrMalformedResult):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// abortWithError writes err as {"error": ...} with the mapped status.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
