package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAPIEndpoints 测试API端点的基本功能
func TestAPIEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("健康检查", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"message": "服务运行正常",
			})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "healthy", resp["status"])
	})

	t.Run("登录请求验证", func(t *testing.T) {
		router := gin.New()

		type LoginRequest struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required,min=6"`
		}

		router.POST("/login", func(c *gin.Context) {
			var req LoginRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": err.Error(),
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"message": "登录成功",
			})
		})

		// 测试缺少必需字段
		body, _ := json.Marshal(map[string]string{
			"username": "testuser",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		// 测试有效请求
		body, _ = json.Marshal(map[string]string{
			"username": "testuser",
			"password": "123456",
		})
		w = httptest.NewRecorder()
		req = httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("事件查询参数解析", func(t *testing.T) {
		router := gin.New()

		router.GET("/events", func(c *gin.Context) {
			limit := c.DefaultQuery("limit", "20")
			offset := c.DefaultQuery("offset", "0")

			var startTime *time.Time
			if start := c.Query("start_time"); start != "" {
				if ts, err := time.Parse(time.RFC3339, start); err == nil {
					startTime = &ts
				}
			}

			c.JSON(http.StatusOK, gin.H{
				"limit":      limit,
				"offset":     offset,
				"has_start":  startTime != nil,
				"event_type": c.Query("event_type"),
			})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/events?event_type=POWER_ON&start_time=2026-01-01T00:00:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "20", resp["limit"])
		assert.Equal(t, true, resp["has_start"])
		assert.Equal(t, "POWER_ON", resp["event_type"])
	})
}
