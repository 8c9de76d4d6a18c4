package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func index(c *gin.Context) {
	c.String(http.StatusOK, "API is working!")
}

func add(c *gin.Context) {
	c.String(http.StatusOK, "hello world")
}
