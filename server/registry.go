package server

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry 房间注册表：只做路由（找房/建房/摘除）与计数，
// 不持有任何对局实体。由 main 组装一个实例，进程级存活，不用包级全局
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	gamesPlayed int64
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// FindRoom 线性扫描找有空位的房间，没有就新建一间并把玩家放进去
func (g *Registry) FindRoom(u *User) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rooms {
		if r.HasSpace() && r.AddUser(u) {
			return r
		}
	}
	r := NewRoom(g)
	g.rooms[r.ID] = r
	if !r.AddUser(u) {
		// 新房必有空位；到这里说明常量错配
		Log.Errorf("fresh room %s rejected user %s", r.ID, u.ID)
	}
	return r
}

// Disconnect 连接断开：标记会话失活并从所属房间摘人
func (g *Registry) Disconnect(u *User) {
	u.markDisconnected()
	if r := u.room(); r != nil {
		r.RemoveUser(u)
	}
}

// requeueLater 对局作废后延迟把幸存玩家送回匹配；
// 延迟期间掉线的玩家不再入队
func (g *Registry) requeueLater(users []*User) {
	time.AfterFunc(rematchDelay, func() {
		for _, u := range users {
			if u.Connected() {
				g.FindRoom(u)
			}
		}
	})
}

// remove 从注册表摘除房间（房间拆除时自行调用）
func (g *Registry) remove(id string) {
	g.mu.Lock()
	delete(g.rooms, id)
	g.mu.Unlock()
}

// Room 按 id 查房
func (g *Registry) Room(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[id]
}

// Rooms 当前全部房间的副本（监控用）
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// NumRooms 房间数
func (g *Registry) NumRooms() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// GamesPlayed 进程内累计完成的对局数（唯一的持久化替代品）
func (g *Registry) GamesPlayed() int64 {
	return atomic.LoadInt64(&g.gamesPlayed)
}

func (g *Registry) incGamesPlayed() {
	atomic.AddInt64(&g.gamesPlayed, 1)
}
