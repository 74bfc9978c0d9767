package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/modem-gateway/internal/database"
	"github.com/wfunc/modem-gateway/internal/service"
	ws "github.com/wfunc/modem-gateway/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	db     *gorm.DB
	events *service.ModemEventService
	hub    *ws.Hub
	log    *zap.Logger
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(db *gorm.DB, events *service.ModemEventService, hub *ws.Hub, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		db:     db,
		events: events,
		hub:    hub,
		log:    log.Named("admin-api"),
	}
}

// CleanupEvents 清理旧事件
// @Summary 清理旧事件
// @Description 删除超过保留天数的模组事件记录
// @Tags Admin
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/events/cleanup [post]
func (h *AdminHandler) CleanupEvents(c *gin.Context) {
	// 获取保留天数
	retentionDays, _ := strconv.Atoi(c.DefaultPostForm("retention_days", "30"))
	if retentionDays < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "保留天数必须大于0",
		})
		return
	}

	deleted, err := h.events.CleanupOldEvents(retentionDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "CLEANUP_FAILED",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("事件清理完成",
		zap.Int("retention_days", retentionDays),
		zap.Int64("deleted", deleted))

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "清理完成",
		Data: gin.H{
			"deleted":        deleted,
			"retention_days": retentionDays,
		},
	})
}

// CheckIntegrity 数据库完整性检查
// @Summary 数据库完整性检查
// @Tags Admin
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/db/integrity [get]
func (h *AdminHandler) CheckIntegrity(c *gin.Context) {
	if err := database.CheckIntegrity(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTEGRITY_CHECK_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "数据库完整性正常",
	})
}

// Vacuum 数据库空间回收
// @Summary 数据库空间回收
// @Tags Admin
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/db/vacuum [post]
func (h *AdminHandler) Vacuum(c *gin.Context) {
	if err := database.Vacuum(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "VACUUM_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "空间回收完成",
	})
}

// OnlineClients 获取在线客户端信息
// @Summary 获取在线WebSocket客户端
// @Tags Admin
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/ws/online [get]
func (h *AdminHandler) OnlineClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": h.hub.GetOnlineCount(),
		"users": h.hub.GetOnlineUsers(),
	})
}
