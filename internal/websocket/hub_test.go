package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/modem-gateway/internal/hardware"
	"go.uber.org/zap"
)

// newTestClient 创建不依赖真实连接的测试客户端
func newTestClient(hub *Hub, id string, userID uint) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Hub:    hub,
		Send:   make(chan []byte, 16),
	}
}

// recvMessage 从客户端发送通道读取一条消息
func recvMessage(t *testing.T, client *Client) *Message {
	t.Helper()

	select {
	case data := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("等待消息超时")
		return nil
	}
}

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient(hub, "client-1", 1)
	hub.Register(client)

	// 注册后应收到连接成功消息
	msg := recvMessage(t, client)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	// 广播消息应到达所有客户端
	hub.Broadcast(&Message{
		Type:      MessageTypePing,
		Data:      json.RawMessage(`{}`),
		Timestamp: time.Now().Unix(),
	})

	msg = recvMessage(t, client)
	assert.Equal(t, MessageTypePing, msg.Type)
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	c1 := newTestClient(hub, "client-1", 1)
	c2 := newTestClient(hub, "client-2", 2)
	hub.Register(c1)
	hub.Register(c2)

	recvMessage(t, c1) // connected
	recvMessage(t, c2) // connected

	// 等待注册完成
	require.Eventually(t, func() bool {
		return hub.GetOnlineCount() == 2
	}, time.Second, 10*time.Millisecond)

	err := hub.SendToUser(1, &Message{
		Type: MessageTypeModemStatus,
		Data: json.RawMessage(`{"state":1}`),
	})
	require.NoError(t, err)

	msg := recvMessage(t, c1)
	assert.Equal(t, MessageTypeModemStatus, msg.Type)

	// 用户2不应收到消息
	select {
	case <-c2.Send:
		t.Fatal("用户2不应收到定向消息")
	case <-time.After(100 * time.Millisecond):
	}

	// 未连接的用户返回错误
	err = hub.SendToUser(99, &Message{Type: MessageTypePing})
	assert.ErrorIs(t, err, ErrUserNotConnected)
}

func TestHubBroadcastModemEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient(hub, "client-1", 1)
	hub.Register(client)
	recvMessage(t, client) // connected

	hub.BroadcastModemEvent(&hardware.Event{
		Type:      hardware.EventPowerOn,
		State:     hardware.PoweredOn,
		Timestamp: time.Now(),
	})

	msg := recvMessage(t, client)
	assert.Equal(t, MessageTypeModemEvent, msg.Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, string(hardware.EventPowerOn), payload["event"])
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient(hub, "client-1", 1)
	hub.Register(client)
	recvMessage(t, client)

	hub.Unregister(client)

	require.Eventually(t, func() bool {
		return hub.GetOnlineCount() == 0
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, hub.GetOnlineUsers())
}
