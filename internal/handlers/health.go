package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

func Health(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		mongoState := "connected"
		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			mongoState = "disconnected"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "online",
			"service":   "Bundle Hub API",
			"timestamp": time.Now(),
			"mongodb":   mongoState,
		})
	}
}
