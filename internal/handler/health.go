package handler

import (
	"context"
	"net/http"
	"time"

	"distillery/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports store connectivity and, when Redis is configured, the export
// backlog. A server running without Redis reports it as "disabled" and stays
// healthy; parked exports never make it unhealthy.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"db": "connected", "redis": "disabled"}
		healthy := true

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			body["db"] = "error"
			healthy = false
		}

		if rdb != nil {
			body["redis"] = "connected"
			if rdb.Ping(ctx).Err() != nil {
				body["redis"] = "error"
				healthy = false
			} else {
				if n, err := rdb.LLen(ctx, worker.QueueExport).Result(); err == nil {
					body["exports_queued"] = n
				}
				if n, err := worker.DLQLength(ctx, rdb, worker.QueueExport); err == nil {
					body["exports_parked"] = n
				}
			}
		}

		body["ok"] = healthy
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, body)
	}
}
