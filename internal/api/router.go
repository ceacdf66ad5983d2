package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pallet-board-backend/config"
	"pallet-board-backend/internal/classify"
	"pallet-board-backend/internal/coordinator"
	"pallet-board-backend/internal/mw"
	"pallet-board-backend/internal/store"
	"pallet-board-backend/internal/ws"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Server        config.ServerConfig
	Coordinator   *coordinator.Coordinator
	Subscriptions store.SubscriptionStore
	WebPush       *webpush.Options
	Classifier    classify.Classifier // optional
	Hub           *ws.Hub
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	h := NewHandler(d.Coordinator, d.Subscriptions, d.WebPush, d.Classifier)

	rateLimiter := mw.RateLimiter(rate.Limit(d.Server.RateLimitPerSec), d.Server.RateLimitBurst, d.Server.RequestIPHeader)

	// The layout never changes at runtime, so only its routes are cached.
	ttl := time.Duration(d.Server.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/layout", caching, GetLayout())
		api.GET("/layout/labels.pdf", caching, GetLabelsPDF())

		api.GET("/board", h.GetBoard)
		api.GET("/stats", h.GetStats)

		api.GET("/slots", h.ListSlots)
		api.GET("/slots/export", h.ExportSlots)
		api.GET("/slots/:id", h.GetSlot)
		api.GET("/slots/:id/line", h.GetSlotLine)
		api.PUT("/slots/:id", h.PutSlot)
		api.DELETE("/slots/:id", h.DeleteSlot)
		api.POST("/slots/:id/returns", h.MoveToReturns)
		api.POST("/slots/:id/copy", h.CopySlot)
		api.POST("/slots/:id/move", h.MoveSlot)
		api.POST("/slots/:id/pick/:sasId", h.PickFromSas)

		api.GET("/sas", h.GetSas)
		api.GET("/sas/candidates", h.GetSlotCandidates)
		api.GET("/sas/export.pdf", h.ExportSasPDF)
		api.PATCH("/sas/:index", h.EditSas)
		api.DELETE("/sas/:index", h.DeleteSas)
		api.POST("/sas/scan", h.ScanSas)

		api.GET("/returns", h.GetReturns)
		api.GET("/returns/candidates", h.GetReturnCandidates)
		api.GET("/returns/export", h.ExportReturns)
		api.PATCH("/returns/:index", h.EditReturn)
		api.DELETE("/returns/:index", h.DeleteReturn)
		api.DELETE("/returns", h.ClearReturns)
		api.POST("/returns/import/:sasId", h.ImportReturn)

		api.GET("/archives", h.GetArchives)
		api.DELETE("/archives", h.ClearArchives)

		api.POST("/save", h.Save)
		api.GET("/sync", h.GetSync)
		api.GET("/preferences/theme", h.GetTheme)
		api.PUT("/preferences/theme", h.PutTheme)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	if d.Hub != nil {
		r.GET("/ws", ws.ServeWs(d.Hub))
	}

	return r
}
