package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skobelevn/aircheckin/internal/ws"
)

// WSHandler upgrades agent connections and subscribes them to one
// flight's event stream.
type WSHandler struct {
	hub      *ws.Hub
	commands ws.SeatCommands
}

func NewWSHandler(hub *ws.Hub, commands ws.SeatCommands) *WSHandler {
	return &WSHandler{hub: hub, commands: commands}
}

func (h *WSHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights/:id", h.subscribe)
}

func (h *WSHandler) subscribe(c *gin.Context) {
	flightID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := ws.ServeWS(h.hub, h.commands, flightID, c.Writer, c.Request); err != nil {
		log.Printf("ws: upgrade failed for flight %d: %v", flightID, err)
	}
}
