package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn 单条 WebSocket 连接的发送端包装：
// 带缓冲发送队列 + 独立写协程，队列满时丢弃以保护 Tick 实时性
type ClientConn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 非阻塞入队；拥塞时丢弃本条消息（快照会被下一拍覆盖）。
// 广播与断线跑在不同协程上，入队和关闭必须互斥
func (c *ClientConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// Close 关闭发送队列与底层连接；幂等
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// writePump 独立协程：从队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump 读取客户端事件并按类型分发；退出即视为断线
func (c *ClientConn) readPump(reg *Registry, user *User) {
	defer c.Close()
	defer reg.Disconnect(user)
	c.ws.SetReadLimit(1 << 20)
	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		c.dispatch(reg, user, msg)
	}
}

// dispatch 应用层事件路由。除 find-room 外都要求已在房间内；
// 坏载荷与无房事件一律静默丢弃（客户端不受信任）
func (c *ClientConn) dispatch(reg *Registry, user *User, msg clientMessage) {
	if msg.Type == "find-room" {
		if user.room() == nil {
			reg.FindRoom(user)
		}
		return
	}

	room := user.room()
	if room == nil {
		return
	}

	switch msg.Type {
	case "ready":
		var p readyPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleReady(user, p.Pos)
		}
	case "client-update":
		var p clientUpdatePayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleClientUpdate(user, p.PlayerPos, p.PlayerVel)
		}
	case "fire-bullet":
		var p fireBulletPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleFireBullet(user, p.Pos, p.Rotation)
		}
	case "drop-message":
		var p dropMessagePayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleDropMessage(user, p.Pos)
		}
	case "drop-arrow":
		var p dropArrowPayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleDropArrow(user, p.Pos, p.Rotation)
		}
	case "destroy-message":
		var p destroyMessagePayload
		if json.Unmarshal(msg.Data, &p) == nil {
			room.HandleDestroyMessage(user, p.ID, p.Courier)
		}
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 客户端同源部署；跨源需求出现时再收紧
		return true
	},
}

// HandleWS WebSocket 接入：建立会话、下发 set-id、进入匹配
func HandleWS(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			Log.Warnf("upgrade error: %v", err)
			return
		}

		conn := NewClientConn(ws)
		user := NewUser(conn)
		go conn.writePump()

		Log.Infof("connected: user %s", user.ID)
		user.send("set-id", setIDEvent{ID: user.ID})
		reg.FindRoom(user)

		go conn.readPump(reg, user)
	}
}
