package server

import (
	"math"

	"github.com/google/uuid"
)

// genID 生成实体/房间/会话的唯一标识
func genID() string {
	return uuid.NewString()
}

// Bullet 子弹：猎人开火产生，命中或超出射程即消亡
type Bullet struct {
	ID       string
	Pos      Vec2
	Origin   Vec2
	Vel      Vec2
	Rotation float64
}

// NewBullet 按开火角度换算固定速度的速度向量
func NewBullet(pos Vec2, rotation float64) *Bullet {
	return &Bullet{
		ID:       genID(),
		Pos:      pos,
		Origin:   pos,
		Rotation: rotation,
		Vel: Vec2{
			X: math.Cos(rotation) * BulletSpeed,
			Y: math.Sin(rotation) * BulletSpeed,
		},
	}
}

// Update 推进一个 Tick 的位移
func (b *Bullet) Update() {
	b.Pos.X += b.Vel.X
	b.Pos.Y += b.Vel.Y
}

// Expired 是否超出射程上限（检测到的同一 Tick 内必须移除）
func (b *Bullet) Expired() bool {
	return Dist(b.Pos, b.Origin) > BulletMaxRange
}

// Hitbox 子弹碰撞盒：直径方形并向内收 2 像素
func (b *Bullet) Hitbox() Rect {
	r2 := BulletRadius * 2
	return Rect{
		X: b.Pos.X - BulletRadius + 2,
		Y: b.Pos.Y - BulletRadius + 2,
		W: r2 - 4,
		H: r2 - 4,
	}
}

func (b *Bullet) snapshot() bulletSnapshot {
	return bulletSnapshot{ID: b.ID, Pos: b.Pos, Rotation: b.Rotation}
}

// Message 地上的情报信件；Objective 标记信使的目标信件
type Message struct {
	ID        string
	Pos       Vec2
	Coords    [2]int
	Objective bool
}

func NewMessage(pos Vec2, objective bool) *Message {
	return &Message{
		ID:        genID(),
		Pos:       pos,
		Coords:    [2]int{112, 45},
		Objective: objective,
	}
}

func (m *Message) Hitbox() Rect {
	return RectFromCenter(m.Pos, MessageWidth, MessageHeight)
}

func (m *Message) snapshot() messageSnapshot {
	return messageSnapshot{ID: m.ID, Pos: m.Pos, Coords: m.Coords}
}

// Building 建筑：房间生成后不可变，只作为碰撞障碍
type Building struct {
	ID  string
	Pos Vec2 // 中心点
	W   float64
	H   float64
}

func (bd *Building) Hitbox() Rect {
	return RectFromCenter(bd.Pos, bd.W, bd.H)
}

func (bd *Building) snapshot() buildingSnapshot {
	return buildingSnapshot{ID: bd.ID, Pos: bd.Pos, W: bd.W, H: bd.H}
}

// GroundArrow 地面箭头标记；超过上限后最旧的一枚开始淡出
type GroundArrow struct {
	ID       string
	Pos      Vec2
	Rotation float64
	Removing bool
	Opacity  float64
}

func NewGroundArrow(pos Vec2, rotation float64) *GroundArrow {
	return &GroundArrow{ID: genID(), Pos: pos, Rotation: rotation, Opacity: 1}
}

// Update 淡出推进：每 Tick 降低不透明度
func (a *GroundArrow) Update() {
	if a.Removing && a.Opacity > 0 {
		a.Opacity -= 0.1
	}
}

// Faded 完全透明后即可从房间移除
func (a *GroundArrow) Faded() bool {
	return a.Opacity <= 0
}

func (a *GroundArrow) snapshot() arrowSnapshot {
	return arrowSnapshot{ID: a.ID, Pos: a.Pos, Rotation: a.Rotation, Opacity: a.Opacity}
}
