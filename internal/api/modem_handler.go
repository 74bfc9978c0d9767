package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/service"
	"go.uber.org/zap"
)

// ModemHandler 模组控制处理器
type ModemHandler struct {
	service service.ModemService
	events  *service.ModemEventService
	log     *zap.Logger
}

// NewModemHandler 创建模组控制处理器
func NewModemHandler(modemService service.ModemService, events *service.ModemEventService, log *zap.Logger) *ModemHandler {
	return &ModemHandler{
		service: modemService,
		events:  events,
		log:     log.Named("modem-api"),
	}
}

// PowerOn 模组上电
// @Summary 模组上电
// @Description 执行模组上电流程
// @Tags Modem
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/modem/power/on [post]
func (h *ModemHandler) PowerOn(c *gin.Context) {
	if err := h.service.PowerOn(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "POWER_ON_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "模组上电完成",
	})
}

// PowerOff 模组下电
// @Summary 模组下电
// @Description 执行模组下电流程
// @Tags Modem
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/modem/power/off [post]
func (h *ModemHandler) PowerOff(c *gin.Context) {
	if err := h.service.PowerOff(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "POWER_OFF_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "模组下电完成",
	})
}

// Status 获取模组状态
// @Summary 获取模组状态
// @Description 获取模组电源状态、连接状态和统计信息
// @Tags Modem
// @Security Bearer
// @Success 200 {object} hardware.StatusSnapshot
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/modem/status [get]
func (h *ModemHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "STATUS_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// QueryEvents 查询模组事件
// @Summary 查询模组事件列表
// @Tags Modem
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/modem/events [get]
func (h *ModemHandler) QueryEvents(c *gin.Context) {
	query := &models.ModemEventQuery{}

	// 解析查询参数
	if eventType := c.Query("event_type"); eventType != "" {
		query.EventType = models.ModemEventType(eventType)
	}
	if level := c.Query("level"); level != "" {
		query.Level = models.ModemEventLevel(level)
	}
	query.State = c.Query("state")
	query.Device = c.Query("device")
	query.HookOp = c.Query("hook_op")

	// 时间范围
	if startTime := c.Query("start_time"); startTime != "" {
		if t, err := time.Parse(time.RFC3339, startTime); err == nil {
			query.StartTime = &t
		}
	}
	if endTime := c.Query("end_time"); endTime != "" {
		if t, err := time.Parse(time.RFC3339, endTime); err == nil {
			query.EndTime = &t
		}
	}

	// 是否有错误
	if hasError := c.Query("has_error"); hasError == "true" {
		b := true
		query.HasError = &b
	}

	// 分页参数
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	query.OrderBy = c.DefaultQuery("order_by", "timestamp DESC")

	events, total, err := h.service.QueryEvents(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "查询失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   events,
		"total":  total,
		"limit":  query.Limit,
		"offset": query.Offset,
	})
}

// GetLatestEvents 获取最新事件
func (h *ModemHandler) GetLatestEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	eventType := models.ModemEventType(c.Query("event_type"))

	events, err := h.events.GetLatestEvents(limit, eventType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "获取失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  events,
		"count": len(events),
	})
}

// GetStats 获取事件统计
func (h *ModemHandler) GetStats(c *gin.Context) {
	var startTime, endTime *time.Time

	// 解析时间范围
	if start := c.Query("start_time"); start != "" {
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			startTime = &t
		}
	}
	if end := c.Query("end_time"); end != "" {
		if t, err := time.Parse(time.RFC3339, end); err == nil {
			endTime = &t
		}
	}

	stats, err := h.service.EventStats(c.Request.Context(), startTime, endTime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "获取统计失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetHookFailures 获取钩子失败记录
func (h *ModemHandler) GetHookFailures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.service.RecentHookFailures(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "获取失败记录失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  events,
		"count": len(events),
	})
}

// ExportEvents 导出事件
func (h *ModemHandler) ExportEvents(c *gin.Context) {
	query := &models.ModemEventQuery{}

	if eventType := c.Query("event_type"); eventType != "" {
		query.EventType = models.ModemEventType(eventType)
	}
	if startTime := c.Query("start_time"); startTime != "" {
		if t, err := time.Parse(time.RFC3339, startTime); err == nil {
			query.StartTime = &t
		}
	}
	if endTime := c.Query("end_time"); endTime != "" {
		if t, err := time.Parse(time.RFC3339, endTime); err == nil {
			query.EndTime = &t
		}
	}
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "1000"))

	data, err := h.events.ExportEvents(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "导出失败",
			"message": err.Error(),
		})
		return
	}

	filename := "modem_events_" + time.Now().Format("20060102_150405") + ".json"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/json", data)
}
