package server

import (
	"sync"
	"time"
)

// Role 玩家角色（封闭集合；最终设计只随机分配猎人与信使）
type Role string

const (
	RoleCourier    Role = "COURIER"
	RoleHunter     Role = "HUNTER"
	RoleMsgDropper Role = "MSGDROPPER" // 早期的放信人角色，保留放置/冷却逻辑
)

// assignableRoles 进房时参与随机分配的角色集合
var assignableRoles = []Role{RoleHunter, RoleCourier}

// User 一条连接即一名玩家；分进房间后由该房间独占其状态
type User struct {
	ID   string
	Conn *ClientConn

	// 以下字段由所属房间的锁保护
	Role      Role
	Ready     bool
	Pos       Vec2
	Vel       Vec2
	SpeedMult float64
	lastDrop  time.Time

	mu        sync.Mutex
	curRoom   *Room
	connected bool
}

func NewUser(conn *ClientConn) *User {
	return &User{ID: genID(), Conn: conn, SpeedMult: 1, connected: true}
}

// Hitbox 玩家碰撞盒（中心锚定 20x15）
func (u *User) Hitbox() Rect {
	return RectFromCenter(u.Pos, PlayerWidth, PlayerHeight)
}

// send 向该玩家推送一条事件；无连接（测试场景）时静默跳过
func (u *User) send(typ string, data any) {
	if u.Conn == nil {
		return
	}
	if b := encodeEvent(typ, data); b != nil {
		u.Conn.Enqueue(b)
	}
}

func (u *User) snapshot() playerSnapshot {
	return playerSnapshot{ID: u.ID, Role: u.Role, Pos: u.Pos, Vel: u.Vel, SpeedMult: u.SpeedMult}
}

// room 返回当前所属房间（可能为 nil：匹配中或对局已终结）
func (u *User) room() *Room {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.curRoom
}

func (u *User) setRoom(r *Room) {
	u.mu.Lock()
	u.curRoom = r
	u.mu.Unlock()
}

// Connected 连接是否仍然存活（重新匹配前校验）
func (u *User) Connected() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.connected
}

func (u *User) markDisconnected() {
	u.mu.Lock()
	u.connected = false
	u.mu.Unlock()
}
