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
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/modem-gateway/internal/config"
	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/service"
	"github.com/wfunc/modem-gateway/internal/utils"
	"go.uber.org/zap"
)

// RouterTestSuite 路由集成测试
type RouterTestSuite struct {
	suite.Suite
	db      *gorm.DB
	manager *hardware.ModemManager
	router  *Router
	token   string
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.ModemEvent{},
		&models.DeviceStatus{},
	)
	require.NoError(suite.T(), err)

	// 创建管理员账号
	hashed, err := utils.HashPassword("admin123")
	require.NoError(suite.T(), err)
	admin := &models.User{
		Username: "admin",
		Nickname: "管理员",
		Password: hashed,
		Role:     "admin",
		Status:   "active",
	}
	require.NoError(suite.T(), db.Create(admin).Error)

	// Mock模式硬件管理器
	suite.manager = hardware.NewModemManager(&config.ModemConfig{
		Enabled:      true,
		MockMode:     true,
		Device:       "/dev/null",
		BaudRate:     115200,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		TXPin:        35,
		RXPin:        36,
		RTSPin:       -1,
		CTSPin:       -1,
	})

	suite.router = NewRouter(db, suite.manager, service.DefaultConfig(), zap.NewNop())
	require.NoError(suite.T(), suite.router.Services().Modem.Start())
}

func (suite *RouterTestSuite) TearDownSuite() {
	suite.router.Services().Modem.Stop()
	suite.router.Services().Close()
}

// doRequest 发送测试请求
func (suite *RouterTestSuite) doRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.GetEngine().ServeHTTP(w, req)
	return w
}

// login 登录并缓存令牌
func (suite *RouterTestSuite) login() string {
	if suite.token != "" {
		return suite.token
	}

	w := suite.doRequest("POST", "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	}, "")
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var resp service.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(suite.T(), resp.AccessToken)

	suite.token = resp.AccessToken
	return suite.token
}

func (suite *RouterTestSuite) TestHealthCheck() {
	w := suite.doRequest("GET", "/health", nil, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestLoginFlow() {
	// 错误密码
	w := suite.doRequest("POST", "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// 正常登录
	token := suite.login()
	assert.NotEmpty(suite.T(), token)
}

func (suite *RouterTestSuite) TestModemStatusRequiresAuth() {
	w := suite.doRequest("GET", "/api/v1/modem/status", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.doRequest("GET", "/api/v1/modem/status", nil, suite.login())
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var status hardware.StatusSnapshot
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(suite.T(), 115200, status.BaudRate)
}

func (suite *RouterTestSuite) TestPowerCycle() {
	token := suite.login()

	w := suite.doRequest("POST", "/api/v1/modem/power/on", nil, token)
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	w = suite.doRequest("GET", "/api/v1/modem/status", nil, token)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var status hardware.StatusSnapshot
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(suite.T(), hardware.PoweredOn, status.State)

	w = suite.doRequest("POST", "/api/v1/modem/power/off", nil, token)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestQueryEvents() {
	token := suite.login()

	w := suite.doRequest("GET", "/api/v1/modem/events?limit=10", nil, token)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(suite.T(), resp, "total")
}

func (suite *RouterTestSuite) TestAdminRoute() {
	w := suite.doRequest("GET", "/api/v1/admin/ws/online", nil, suite.login())
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(suite.T(), resp, "count")
}

func (suite *RouterTestSuite) TestNotFound() {
	w := suite.doRequest("GET", "/api/v1/nothing", nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
