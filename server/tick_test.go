package server

import (
	"testing"
	"time"
)

// newBareRoom 清掉随机地图的房间：碰撞用例自行摆放实体
func newBareRoom(seed int64) *Room {
	r := newRoom(NewRegistry(), seed)
	r.state = StatePlaying
	r.buildings = nil
	r.civilians = nil
	r.messages = nil
	return r
}

// 判定顺序：子弹同时压着建筑与平民时，建筑优先，平民不计入击杀
func TestBuildingTakesPrecedenceOverCivilian(t *testing.T) {
	r := newBareRoom(1)
	spot := Vec2{X: 400, Y: 300}
	r.buildings = []*Building{{ID: "b", Pos: spot, W: 40, H: 40}}
	r.civilians = []*Civilian{{ID: "c", Pos: spot, State: CivStatic, maxWaitTime: time.Hour}}
	r.bullets = []*Bullet{NewBullet(spot, 0)}

	r.resolveCollisionsLocked()

	if len(r.bullets) != 0 {
		t.Fatal("bullet not consumed by building")
	}
	if len(r.civilians) != 1 {
		t.Fatal("civilian was killed despite building precedence")
	}
	if r.civiliansKilled != 0 {
		t.Fatalf("civiliansKilled = %d, want 0", r.civiliansKilled)
	}
}

func TestBulletHitsCivilian(t *testing.T) {
	r := newBareRoom(2)
	spot := Vec2{X: 400, Y: 300}
	r.civilians = []*Civilian{{ID: "c", Pos: spot, State: CivStatic, maxWaitTime: time.Hour}}
	r.bullets = []*Bullet{NewBullet(spot, 0)}

	r.resolveCollisionsLocked()

	if len(r.bullets) != 0 || len(r.civilians) != 0 {
		t.Fatal("bullet/civilian pair not removed")
	}
	if r.civiliansKilled != 1 {
		t.Fatalf("civiliansKilled = %d, want 1", r.civiliansKilled)
	}
	if r.State() == StateGameOver {
		t.Fatal("single kill below cap must not end the game")
	}
}

// 一颗子弹一个 Tick 只结算一次：两名平民叠在一起也只倒下一个
func TestBulletResolvesAtMostOnce(t *testing.T) {
	r := newBareRoom(3)
	spot := Vec2{X: 400, Y: 300}
	r.civilians = []*Civilian{
		{ID: "c1", Pos: spot, State: CivStatic, maxWaitTime: time.Hour},
		{ID: "c2", Pos: spot, State: CivStatic, maxWaitTime: time.Hour},
	}
	r.bullets = []*Bullet{NewBullet(spot, 0)}

	r.resolveCollisionsLocked()

	if r.civiliansKilled != 1 {
		t.Fatalf("civiliansKilled = %d, want 1", r.civiliansKilled)
	}
	if len(r.civilians) != 1 {
		t.Fatalf("surviving civilians = %d, want 1", len(r.civilians))
	}
}

// 超射程的子弹在检测到的同一 Tick 内移除
func TestBulletRemovedAtMaxRange(t *testing.T) {
	r := newBareRoom(4)
	b := NewBullet(Vec2{X: 800, Y: 300}, 0)
	b.Origin = Vec2{X: 800 - BulletMaxRange, Y: 300}
	r.bullets = []*Bullet{b}

	r.stepSimulation()

	if len(r.bullets) != 0 {
		t.Fatal("out-of-range bullet survived the tick")
	}
}

func TestBulletWithinRangeSurvives(t *testing.T) {
	r := newBareRoom(5)
	r.bullets = []*Bullet{NewBullet(Vec2{X: 100, Y: 100}, 0)}

	r.stepSimulation()

	if len(r.bullets) != 1 {
		t.Fatal("in-range bullet was removed")
	}
	if got := r.bullets[0].Pos.X; got != 100+BulletSpeed {
		t.Fatalf("bullet x = %v, want %v", got, 100+BulletSpeed)
	}
}

// 猎人对子弹免疫：压着也不消耗、不终局
func TestHunterImmuneToBullets(t *testing.T) {
	r := newBareRoom(6)
	hunter := NewUser(newTestConn())
	hunter.Role = RoleHunter
	hunter.Ready = true
	hunter.Pos = Vec2{X: 400, Y: 300}
	r.users[hunter.ID] = hunter
	r.bullets = []*Bullet{NewBullet(hunter.Pos, 0)}

	r.resolveCollisionsLocked()

	if len(r.bullets) != 1 {
		t.Fatal("bullet consumed against the hunter")
	}
	if r.State() == StateGameOver {
		t.Fatal("hunter overlap ended the game")
	}
}

// 放信人被命中：消耗子弹、下发 shot，但不终局
func TestMsgDropperHitConsumesBulletOnly(t *testing.T) {
	r := newBareRoom(7)
	dropper := NewUser(newTestConn())
	dropper.Role = RoleMsgDropper
	dropper.Ready = true
	dropper.Pos = Vec2{X: 400, Y: 300}
	r.users[dropper.ID] = dropper
	r.bullets = []*Bullet{NewBullet(dropper.Pos, 0)}

	r.resolveCollisionsLocked()

	if r.State() == StateGameOver {
		t.Fatal("msg dropper hit ended the game")
	}
	if len(r.bullets) != 0 {
		t.Fatal("bullet not consumed against the msg dropper")
	}
	if _, ok := findEvent(receivedEvents(dropper.Conn), "shot"); !ok {
		t.Fatal("dropper missing shot event")
	}
}

func TestBroadcastOnlyToReadyPlayers(t *testing.T) {
	_, r, hunter, courier := newPlayingRoom(t, 8)
	r.HandleReady(hunter, Vec2{X: 100, Y: 100})
	receivedEvents(hunter.Conn)
	receivedEvents(courier.Conn)

	r.broadcastState()

	if _, ok := findEvent(receivedEvents(hunter.Conn), "game-update"); !ok {
		t.Fatal("ready player missing game-update")
	}
	if _, ok := findEvent(receivedEvents(courier.Conn), "game-update"); ok {
		t.Fatal("unready player received game-update")
	}
}

// 压在信件上的非猎人玩家每个广播拍收到一条拾取提示
func TestMessageCollisionHint(t *testing.T) {
	_, r, hunter, courier := newPlayingRoom(t, 9)
	msg := r.messages[0]
	r.HandleReady(courier, msg.Pos)
	r.HandleReady(hunter, clearSpot(t, r, 60, 60))
	receivedEvents(courier.Conn)

	r.broadcastState()

	evs := receivedEvents(courier.Conn)
	hints := 0
	for _, e := range evs {
		if e.Type == "message-collision" {
			hints++
		}
	}
	if hints != 1 {
		t.Fatalf("hints = %d, want exactly 1 per broadcast", hints)
	}
}
