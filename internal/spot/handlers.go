package spot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same-device gateway; the browser origin is not a trust boundary here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GinHandlers contains HTTP handlers for the spot widget
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for the spot widget
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SnapshotHandler handles GET requests for one feed tick
func (h *GinHandlers) SnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.service.Snapshot())
	}
}

// ListOrdersHandler handles GET requests for the simulated orders,
// partitioned into open and history
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		open, history := SplitOrders(h.service.Orders())
		response.Success(c, gin.H{"open": open, "history": history})
	}
}

// PlaceOrderHandler handles POST requests to place a simulated order
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if req.Type == TypeLimit && req.Price <= 0 {
			response.BadRequest(c, "Limit orders require a positive price")
			return
		}

		o, err := h.service.Place(req)
		response.Handle(c, o, err)
	}
}

// CancelOrderHandler handles POST requests to cancel an open order
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			response.BadRequest(c, "Order id is required")
			return
		}
		err := h.service.Cancel(id)
		response.Handle(c, gin.H{"canceled": id}, err)
	}
}

// StreamHandler upgrades to a websocket and pushes a snapshot per interval
// until the peer disconnects.
func (h *GinHandlers) StreamHandler(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		logger := log.With().Str("component", "spot_stream").Str("remote", conn.RemoteAddr().String()).Logger()
		logger.Info().Msg("stream opened")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				logger.Info().Msg("stream closed by server")
				return
			case <-ticker.C:
				if err := conn.WriteJSON(h.service.Snapshot()); err != nil {
					logger.Info().Err(err).Msg("stream closed")
					return
				}
			}
		}
	}
}
