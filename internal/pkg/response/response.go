package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type body struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, body{Code: "ok", Data: data})
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, body{Code: code, Message: message})
}
