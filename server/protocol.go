package server

import "encoding/json"

// 入站封包（WebSocket 文本帧）：{"type":"fire-bullet","data":{...}}
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// 客户端 → 服务端 载荷

type readyPayload struct {
	Pos Vec2 `json:"pos"`
}

type clientUpdatePayload struct {
	PlayerPos Vec2 `json:"playerPos"`
	PlayerVel Vec2 `json:"playerVel"`
}

type fireBulletPayload struct {
	Pos      Vec2    `json:"pos"`
	Rotation float64 `json:"rotation"`
}

type dropMessagePayload struct {
	Pos Vec2 `json:"pos"`
}

type dropArrowPayload struct {
	Pos      Vec2    `json:"pos"`
	Rotation float64 `json:"rotation"`
}

type destroyMessagePayload struct {
	ID      string `json:"id"`
	Courier bool   `json:"courier"`
}

// 服务端 → 客户端 载荷（显式快照结构，而非直接序列化内部实体）

type playerSnapshot struct {
	ID        string  `json:"id"`
	Role      Role    `json:"type"`
	Pos       Vec2    `json:"pos"`
	Vel       Vec2    `json:"vel"`
	SpeedMult float64 `json:"speedMult"`
}

type bulletSnapshot struct {
	ID       string  `json:"id"`
	Pos      Vec2    `json:"pos"`
	Rotation float64 `json:"rotation"`
}

type messageSnapshot struct {
	ID     string `json:"id"`
	Pos    Vec2   `json:"pos"`
	Coords [2]int `json:"coords"`
}

type arrowSnapshot struct {
	ID       string  `json:"id"`
	Pos      Vec2    `json:"pos"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

type civilianSnapshot struct {
	ID    string   `json:"id"`
	Pos   Vec2     `json:"pos"`
	Dir   CivDir   `json:"dir"`
	State CivState `json:"state"`
}

type buildingSnapshot struct {
	ID  string  `json:"id"`
	Pos Vec2    `json:"pos"`
	W   float64 `json:"w"`
	H   float64 `json:"h"`
}

// gameUpdate 广播节拍下发的整体房间快照
type gameUpdate struct {
	Players         map[string]playerSnapshot `json:"players"`
	Bullets         []bulletSnapshot          `json:"bullets"`
	Arrows          []arrowSnapshot           `json:"arrows"`
	Messages        []messageSnapshot         `json:"messages"`
	Civilians       []civilianSnapshot        `json:"civilians"`
	CiviliansKilled int                       `json:"civiliansKilled"`
}

type setIDEvent struct {
	ID string `json:"id"`
}

type setTypeEvent struct {
	Role Role `json:"type"`
}

type setGameInfoEvent struct {
	Players   map[string]playerSnapshot `json:"players"`
	Buildings []buildingSnapshot        `json:"buildings"`
}

type playerAddedEvent struct {
	ID   string `json:"id"`
	Role Role   `json:"type"`
	Pos  Vec2   `json:"pos"`
	Vel  Vec2   `json:"vel"`
}

type playerRemovedEvent struct {
	ID string `json:"id"`
}

type setStateEvent struct {
	State RoomState `json:"state"`
	Reset bool      `json:"reset"`
}

type startPhaseTwoEvent struct {
	Destination Rect `json:"destination"`
}

type gameOverEvent struct {
	DidWin bool   `json:"didWin"`
	Reason string `json:"reason"`
}

type shotEvent struct {
	Bullet bulletSnapshot `json:"bullet"`
}

type messageCollisionEvent struct {
	Message messageSnapshot `json:"message"`
}

// encodeEvent 组装出站封包；序列化失败返回 nil（调用侧丢弃）
func encodeEvent(typ string, data any) []byte {
	b, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: typ, Data: data})
	if err != nil {
		Log.Warnf("encode event %s: %v", typ, err)
		return nil
	}
	return b
}
