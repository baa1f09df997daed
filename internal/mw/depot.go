package mw

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DepotHeader carries the authenticated caller's depot scope. The surrounding
// system resolves authentication and roles; this backend only ever receives
// the scope explicitly and never reads it from ambient state.
const DepotHeader = "X-Depot-ID"

const depotKey = "depot_id"

// DepotScope extracts the depot id header and stores it on the request
// context. Requests without a valid depot scope are rejected up front.
func DepotScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(DepotHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": DepotHeader + " header is required"})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + DepotHeader + " header"})
			return
		}
		c.Set(depotKey, id)
		c.Next()
	}
}

// DepotID returns the depot scope set by DepotScope.
func DepotID(c *gin.Context) int64 {
	return c.GetInt64(depotKey)
}
