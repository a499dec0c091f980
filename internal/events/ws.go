package events

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler streams record events to a websocket subscriber until it
// disconnects. ?since=N replays retained events after N. Authentication
// belongs to middleware in front of it.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		since, ok := parseSince(c.Query("since"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		sub := &wsSubscriber{conn: conn}
		if err := hub.subscribe(sub, transportWS, since); err != nil {
			_ = conn.Close()
			return
		}
		log.Debug().Str("component", "events-ws").Msg("client connected")

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		hub.unsubscribe(sub)
		log.Debug().Str("component", "events-ws").Msg("client disconnected")
	}
}

// RecentHandler returns retained events after ?since=N (default: all).
func RecentHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		since, ok := parseSince(c.Query("since"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
			return
		}
		var after uint64
		if since != nil {
			after = *since
		}
		c.JSON(http.StatusOK, gin.H{"seq": hub.Stats().Seq, "events": hub.Since(after)})
	}
}

func parseSince(raw string) (*uint64, bool) {
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}
