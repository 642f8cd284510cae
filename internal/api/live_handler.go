package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/live"
)

const (
	liveWriteWait  = 10 * time.Second
	livePingPeriod = 30 * time.Second
)

// LiveHandler streams storefront snapshots over a WebSocket so open catalog
// pages update without polling.
type LiveHandler struct {
	storeRepo  db.StoreRepository
	aggregator *live.Aggregator
	upgrader   websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(storeRepo db.StoreRepository, aggregator *live.Aggregator) *LiveHandler {
	return &LiveHandler{
		storeRepo:  storeRepo,
		aggregator: aggregator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The storefront is public, so any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StreamPublicStore handles GET /api/v1/public/stores/:slug/live.
// Each delivered snapshot is reduced to the public view before being sent.
func (h *LiveHandler) StreamPublicStore(c *gin.Context) {
	storeSlug := c.Param("slug")
	if storeSlug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store slug is required"})
		return
	}

	store, err := h.storeRepo.GetBySlug(c.Request.Context(), storeSlug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Store not found"})
			return
		}
		log.Printf("StreamPublicStore Error: failed to resolve slug '%s': %v", storeSlug, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load store"})
		return
	}

	h.stream(c, store.ID, live.Snapshot.PublicView)
}

// StreamOwnerStore handles GET /api/v1/stores/:storeId/live. The owner view
// includes inactive categories and items, so the editor reflects edits the
// moment they are saved. Runs behind the auth middleware; only the owner may
// connect.
func (h *LiveHandler) StreamOwnerStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	store, err := h.storeRepo.GetByID(c.Request.Context(), storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Store not found"})
			return
		}
		log.Printf("StreamOwnerStore Error: failed to load store '%s': %v", storeID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load store"})
		return
	}
	if store.UserID != userID.(string) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You do not have permission to access this store"})
		return
	}

	h.stream(c, store.ID, live.Snapshot.OwnerView)
}

// stream upgrades the connection, subscribes to the aggregator and forwards
// snapshots through the given view until the client goes away. Snapshots
// before readiness are skipped so clients never render a partially loaded
// catalog.
func (h *LiveHandler) stream(c *gin.Context, storeID string, view func(live.Snapshot) live.Snapshot) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		log.Printf("Live stream Error: WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Buffered so a slow client never blocks the listener callback. When the
	// buffer is full the oldest snapshot is dropped; only the latest state
	// matters to a storefront.
	snapshots := make(chan live.Snapshot, 8)
	cancel, err := h.aggregator.Subscribe(c.Request.Context(), storeID, func(snap live.Snapshot) {
		if !snap.Ready {
			return
		}
		for {
			select {
			case snapshots <- view(snap):
				return
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	})
	if err != nil {
		log.Printf("Live stream Error: subscription failed for store %s: %v", storeID, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"), time.Now().Add(liveWriteWait))
		return
	}
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// required to notice disconnects and process control frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(livePingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case snap := <-snapshots:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
