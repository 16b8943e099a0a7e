package server

import (
	"math/rand"
	"sync"
	"time"
)

// RoomState 房间状态机
type RoomState string

const (
	StateChoosingRoom RoomState = "CHOOSING_ROOM" // 等待凑满角色
	StateStarting     RoomState = "STARTING"      // 满员，开局倒计时
	StatePlaying      RoomState = "PLAYING"       // 模拟与碰撞引擎运转中
	StateGameOver     RoomState = "GAME_OVER"     // 终态，随即拆除
	StateReset        RoomState = "RESET"         // 对端掉线后客户端过渡回匹配
)

// Phase 对局阶段：信使拾取目标信件后进入第二阶段
type Phase int

const (
	PhaseOne Phase = 1
	PhaseTwo Phase = 2
)

// Room 一局对战的权威世界：独占其内的玩家、子弹、信件、建筑与平民。
// 所有状态由 mu 保护；模拟 Tick 与广播 Tick 跑在同一个房间协程里，
// 网络事件在连接读协程里即时加锁写入（后写覆盖先写）。
type Room struct {
	ID string

	mu    sync.Mutex
	users map[string]*User
	roles map[Role]bool
	state RoomState
	phase Phase

	buildings   []*Building
	bullets     []*Bullet
	arrows      []*GroundArrow
	messages    []*Message
	civilians   []*Civilian
	destination Rect

	civiliansKilled int

	rng      *rand.Rand
	registry *Registry
	metrics  *RoomMetrics

	stopOnce  sync.Once
	stopCh    chan struct{}
	countdown *time.Timer
	closed    bool
}

// NewRoom 创建房间并立即生成地图、平民与开局信件，随后启动房间协程
func NewRoom(registry *Registry) *Room {
	r := newRoom(registry, time.Now().UnixNano())
	go r.run()
	return r
}

// newRoom 显式传入随机种子：同一种子下整局演化确定可复现。
// 不启动房间协程，单测里由调用方手动推 Tick
func newRoom(registry *Registry, seed int64) *Room {
	r := &Room{
		ID:       genID(),
		users:    make(map[string]*User),
		roles:    make(map[Role]bool),
		state:    StateChoosingRoom,
		phase:    PhaseOne,
		rng:      rand.New(rand.NewSource(seed)),
		registry: registry,
		metrics:  &RoomMetrics{},
		stopCh:   make(chan struct{}),
	}
	r.buildings = generateBuildings(r.rng)
	r.civilians = spawnCivilians(r.rng, r.canWalkHere)
	r.messages = spawnInitialMessages(r.rng, r.canWalkHere)
	Log.Infof("room %s created: seed=%d buildings=%d civilians=%d", r.ID, seed, len(r.buildings), len(r.civilians))
	return r
}

// canWalkHere 平民落点合法性：碰撞盒在世界边界内且不压任何建筑
func (r *Room) canWalkHere(pos Vec2) bool {
	hb := RectFromCenter(pos, CivilianSize, CivilianSize)
	if hb.X < 0 || hb.Y < 0 || hb.X+hb.W > MapWidth || hb.Y+hb.H > MapHeight {
		return false
	}
	return !overlapsAny(hb, r.buildings)
}

// HasSpace 是否还能接纳新玩家（只有等待态的房间可加入）
func (r *Room) HasSpace() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.state == StateChoosingRoom && len(r.users) < RoomCapacity
}

// AddUser 进房并随机分配空缺角色；凑满容量即转入开局倒计时
func (r *Room) AddUser(u *User) bool {
	r.mu.Lock()
	if r.closed || len(r.users) >= RoomCapacity {
		r.mu.Unlock()
		return false
	}
	role, ok := r.pickRoleLocked()
	if !ok {
		r.mu.Unlock()
		return false
	}
	u.Role = role
	u.Ready = false
	u.SpeedMult = 1
	r.roles[role] = true
	u.setRoom(r)

	u.send("set-type", setTypeEvent{Role: role})
	for _, other := range r.users {
		other.send("player-added", playerAddedEvent{ID: u.ID, Role: role, Pos: u.Pos, Vel: u.Vel})
	}
	r.users[u.ID] = u
	Log.Infof("room %s: user %s joined as %s (%d/%d)", r.ID, u.ID, role, len(r.users), RoomCapacity)

	if len(r.users) == RoomCapacity {
		r.state = StateStarting
		r.broadcastLocked("set-state", setStateEvent{State: StateStarting})
		r.countdown = time.AfterFunc(startCountdown, r.beginPlay)
	}
	r.mu.Unlock()
	return true
}

// pickRoleLocked 从尚未占用的可分配角色里均匀随机挑一个
func (r *Room) pickRoleLocked() (Role, bool) {
	free := make([]Role, 0, len(assignableRoles))
	for _, role := range assignableRoles {
		if !r.roles[role] {
			free = append(free, role)
		}
	}
	if len(free) == 0 {
		return "", false
	}
	return free[r.rng.Intn(len(free))], true
}

// beginPlay 倒计时走完：进入第一阶段
func (r *Room) beginPlay() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StateStarting {
		return
	}
	r.state = StatePlaying
	r.phase = PhaseOne
	r.broadcastLocked("set-state", setStateEvent{State: StatePlaying})
	r.broadcastLocked("game-start", struct{}{})
	Log.Infof("room %s: game started", r.ID)
}

// RemoveUser 离房。对局进行中掉线会作废整局：
// 其余玩家收到 RESET 并在固定延迟后回到匹配队列
func (r *Room) RemoveUser(u *User) {
	r.mu.Lock()
	if _, ok := r.users[u.ID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.users, u.ID)
	delete(r.roles, u.Role)
	u.setRoom(nil)
	Log.Infof("room %s: user %s removed (%d left)", r.ID, u.ID, len(r.users))

	for _, other := range r.users {
		other.send("player-removed", playerRemovedEvent{ID: u.ID})
	}

	if len(r.users) == 0 {
		r.teardownLocked()
		r.mu.Unlock()
		return
	}

	if r.state == StateStarting || r.state == StatePlaying {
		remaining := make([]*User, 0, len(r.users))
		for _, other := range r.users {
			other.send("set-state", setStateEvent{State: StateReset, Reset: true})
			other.setRoom(nil)
			remaining = append(remaining, other)
		}
		r.users = make(map[string]*User)
		r.roles = make(map[Role]bool)
		r.teardownLocked()
		r.mu.Unlock()
		r.registry.requeueLater(remaining)
		return
	}
	r.mu.Unlock()
}

// HandleReady 客户端落位完成：登记初始位置并回发当前房间信息
func (r *Room) HandleReady(u *User, pos Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	u.Pos = pos
	u.Ready = true
	players := make(map[string]playerSnapshot, len(r.users))
	for _, other := range r.users {
		if other.Ready {
			players[other.ID] = other.snapshot()
		}
	}
	buildings := make([]buildingSnapshot, 0, len(r.buildings))
	for _, bd := range r.buildings {
		buildings = append(buildings, bd.snapshot())
	}
	u.send("set-game-info", setGameInfoEvent{Players: players, Buildings: buildings})
}

// HandleClientUpdate 客户端上报的位置/速度即时生效（后写覆盖先写），
// 不做缓冲或插值；防作弊校验是明确的非目标
func (r *Room) HandleClientUpdate(u *User, pos, vel Vec2) {
	r.mu.Lock()
	u.Pos = pos
	u.Vel = vel
	r.mu.Unlock()
}

// HandleFireBullet 开火：仅猎人有效；弹药不限量，服务端暂不限频
func (r *Room) HandleFireBullet(u *User, pos Vec2, rotation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying || u.Role != RoleHunter {
		return
	}
	r.bullets = append(r.bullets, NewBullet(pos, rotation))
	r.metrics.IncBulletFired()
}

// HandleDropMessage 放置信件：超过并发上限或冷却未到时静默忽略
func (r *Room) HandleDropMessage(u *User, pos Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying || u.Role == RoleHunter {
		return
	}
	if len(r.messages) >= MaxDroppedMessages {
		return
	}
	now := time.Now()
	if !u.lastDrop.IsZero() && now.Sub(u.lastDrop) < dropCooldown {
		return
	}
	u.lastDrop = now
	r.messages = append(r.messages, NewMessage(pos, false))
	r.metrics.IncMessageDropped()
}

// HandleDropArrow 放置地面箭头；达到上限时最旧的一枚开始淡出
func (r *Room) HandleDropArrow(u *User, pos Vec2, rotation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying {
		return
	}
	active := 0
	var oldest *GroundArrow
	for _, a := range r.arrows {
		if !a.Removing {
			active++
			if oldest == nil {
				oldest = a
			}
		}
	}
	if active >= MaxDroppedArrows && oldest != nil {
		oldest.Removing = true
	}
	r.arrows = append(r.arrows, NewGroundArrow(pos, rotation))
}

// HandleDestroyMessage 拾取/销毁信件。引用失效（id 已不存在）按良性竞态
// 静默忽略；二次销毁同一 id 是无副作用的空操作。
// 信使拾取目标信件会触发第二阶段：揭示目的地并给信使加速
func (r *Room) HandleDestroyMessage(u *User, id string, courier bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying || u.Role == RoleHunter {
		return
	}
	idx := -1
	for i, m := range r.messages {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	msg := r.messages[idx]
	if !Overlap(u.Hitbox(), msg.Hitbox()) {
		return
	}
	r.messages = append(r.messages[:idx], r.messages[idx+1:]...)

	if msg.Objective && courier && u.Role == RoleCourier && r.phase == PhaseOne {
		r.phase = PhaseTwo
		r.destination = pickDestination(r.rng, r.buildings)
		u.SpeedMult = CourierSpeedBoost
		r.broadcastLocked("start-phase-two", startPhaseTwoEvent{Destination: r.destination})
		Log.Infof("room %s: phase two, destination at (%.0f, %.0f)", r.ID, r.destination.X, r.destination.Y)
	}
}

// endGameLocked 终结对局：向双方下发胜负与原因，计一局，随后拆房
func (r *Room) endGameLocked(winner Role, reason string) {
	if r.state == StateGameOver {
		return
	}
	r.state = StateGameOver
	Log.Infof("room %s: game over, winner=%s reason=%s", r.ID, winner, reason)
	for _, u := range r.users {
		hunterSide := u.Role == RoleHunter
		u.send("game-over", gameOverEvent{DidWin: hunterSide == (winner == RoleHunter), Reason: reason})
		u.setRoom(nil)
	}
	r.users = make(map[string]*User)
	r.roles = make(map[Role]bool)
	r.registry.incGamesPlayed()
	r.teardownLocked()
}

// teardownLocked 拆除房间：停掉全部计时器并从注册表摘除。
// 幂等；必须在丢弃房间前完成，防止残留回调改写已死房间
func (r *Room) teardownLocked() {
	r.closed = true
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.countdown != nil {
			r.countdown.Stop()
		}
		go r.registry.remove(r.ID)
		Log.Infof("room %s: torn down", r.ID)
	})
}

// broadcastLocked 向房间内全部玩家下发事件（不要求 ready）
func (r *Room) broadcastLocked(typ string, data any) {
	b := encodeEvent(typ, data)
	if b == nil {
		return
	}
	for _, u := range r.users {
		if u.Conn != nil {
			u.Conn.Enqueue(b)
		}
	}
}

// State 当前状态（测试与监控用）
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentPhase 当前阶段
func (r *Room) CurrentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// NumUsers 房间人数
func (r *Room) NumUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Metrics 房间指标句柄
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}
