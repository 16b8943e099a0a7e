package server

import "time"

// 对局常量：启动期固定，运行期不可改（admin 接口只读）
const (
	// 世界边界（像素）
	MapWidth  = 1600.0
	MapHeight = 1200.0

	// 玩家碰撞盒与速度（速度由客户端积分，服务端只转发）
	PlayerWidth       = 20.0
	PlayerHeight      = 15.0
	CourierSpeedBoost = 1.5 // 第二阶段信使加速倍率

	// 子弹：固定速度、射程上限、半径（碰撞盒向内收 2 像素）
	BulletSpeed    = 10.0
	BulletMaxRange = 500.0
	BulletRadius   = 5.0

	// 信件
	MessageWidth       = 20.0
	MessageHeight      = 10.0
	MaxDroppedMessages = 3
	InitialMessages    = 3

	// 地面箭头标记
	MaxDroppedArrows = 6

	// 平民人群
	CivilianCount    = 24
	CivilianSize     = 14.0
	CivilianSpeed    = 1.0
	MaxCivilianKills = 3 // 超过此数对局立刻终结

	// 房间角色容量：一名猎人 + 一名信使
	RoomCapacity = 2

	// 第二阶段目的地碰撞盒边长
	DestinationSize = 40.0

	// 地图/实体摆放失败时的重试上限，防止常量错配时空转
	PlacementMaxRetries = 64
)

// 计时参数：拆出变量便于测试收紧时间窗
var (
	tickInterval      = 16 * time.Millisecond // 模拟 Tick（约 60 TPS）
	broadcastInterval = 28 * time.Millisecond // 广播节拍，独立于模拟节拍
	startCountdown    = 3 * time.Second       // 满员后的开局倒计时
	rematchDelay      = 1500 * time.Millisecond
	dropCooldown      = 5 * time.Second // 放置信件后的冷却
)

// 对局终结原因（随 game-over 下发）
const (
	ReasonShotCourier     = "SHOT_COURIER"
	ReasonCiviliansShot   = "CIVILIANS_SHOT"
	ReasonUnharmedArrival = "UNHARMED_ARRIVAL"
)
