package handlers

import (
	"net/http"

	intconfig "fasobus/internal/config"

	"github.com/gin-gonic/gin"
)

func (a API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data_mode": a.Env.DataMode})
}

func (a API) DBCheck(c *gin.Context) {
	if intconfig.DB == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
		return
	}
	if err := intconfig.EnsureDB(a.Env); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database ping failed: " + err.Error()})
		return
	}
	var count int
	if err := intconfig.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "users_in_db": count})
}
