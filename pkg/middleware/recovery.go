package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にリクエストと認証済みユーザーをスタックトレースとともにログに出力し、500エラーを返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %s: %v\n%s", describeRequest(c), r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error.",
				})
			}
		}()
		c.Next()
	}
}

// describeRequest はログ用にリクエストを要約する。
// Authを通過したリクエストにはユーザーIDを付ける。
func describeRequest(c *gin.Context) string {
	desc := c.Request.Method + " " + c.Request.URL.Path
	if identity, ok := GetIdentity(c); ok && identity.UserID != "" {
		desc += " user_id=" + identity.UserID
	}
	return desc
}
