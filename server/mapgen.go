package server

import "math/rand"

// 分块网格布点参数：地图切成 200x200 的格子，每格至多一栋建筑，
// 建筑连同四周留边完全落在自己的格子里，因此任意两栋天然不重叠
const (
	chunkSize       = 200.0
	chunkMargin     = 24.0 // 每侧留边，保证玩家与平民能从楼间穿过
	buildingMinSize = 50.0
	buildingDensity = 0.5 // 单个格子出现建筑的概率
)

// generateBuildings 每房间调用一次；生成后地图不可变
func generateBuildings(rng *rand.Rand) []*Building {
	cols := int(MapWidth / chunkSize)
	rows := int(MapHeight / chunkSize)
	buildings := make([]*Building, 0, cols*rows)
	maxSize := chunkSize - 2*chunkMargin

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if rng.Float64() >= buildingDensity {
				continue
			}
			w := randRange(rng, buildingMinSize, maxSize)
			h := randRange(rng, buildingMinSize, maxSize)
			// 中心点在格子内随机摆放，保证矩形含留边不出格
			cellX := float64(col) * chunkSize
			cellY := float64(row) * chunkSize
			cx := cellX + randRange(rng, chunkMargin+w/2, chunkSize-chunkMargin-w/2)
			cy := cellY + randRange(rng, chunkMargin+h/2, chunkSize-chunkMargin-h/2)
			buildings = append(buildings, &Building{
				ID:  genID(),
				Pos: Vec2{X: cx, Y: cy},
				W:   w,
				H:   h,
			})
		}
	}
	return buildings
}

// spawnCivilians 逐个找不压建筑的落点；重试超限的个体直接放弃并告警
func spawnCivilians(rng *rand.Rand, canWalk func(Vec2) bool) []*Civilian {
	civilians := make([]*Civilian, 0, CivilianCount)
	for i := 0; i < CivilianCount; i++ {
		pos, ok := findOpenSpot(rng, canWalk)
		if !ok {
			Log.Warnf("civilian placement gave up after %d retries", PlacementMaxRetries)
			continue
		}
		civilians = append(civilians, NewCivilian(pos, rng))
	}
	return civilians
}

// spawnInitialMessages 开局信件：第一封为信使的目标信件
func spawnInitialMessages(rng *rand.Rand, canWalk func(Vec2) bool) []*Message {
	messages := make([]*Message, 0, InitialMessages)
	for i := 0; i < InitialMessages; i++ {
		pos, ok := findOpenSpot(rng, canWalk)
		if !ok {
			Log.Warnf("message placement gave up after %d retries", PlacementMaxRetries)
			continue
		}
		messages = append(messages, NewMessage(pos, len(messages) == 0))
	}
	return messages
}

// pickDestination 第二阶段目的地：空地上的 40x40 碰撞盒；
// 找不到时退化为地图中心（仅在常量错配时可能发生）
func pickDestination(rng *rand.Rand, buildings []*Building) Rect {
	for i := 0; i < PlacementMaxRetries; i++ {
		center := Vec2{
			X: randRange(rng, DestinationSize, MapWidth-DestinationSize),
			Y: randRange(rng, DestinationSize, MapHeight-DestinationSize),
		}
		hb := RectFromCenter(center, DestinationSize, DestinationSize)
		if !overlapsAny(hb, buildings) {
			return hb
		}
	}
	Log.Warnf("destination placement gave up after %d retries, using map center", PlacementMaxRetries)
	return RectFromCenter(Vec2{X: MapWidth / 2, Y: MapHeight / 2}, DestinationSize, DestinationSize)
}

// findOpenSpot 有限重试地在地图内找一个 canWalk 通过的点
func findOpenSpot(rng *rand.Rand, canWalk func(Vec2) bool) (Vec2, bool) {
	for i := 0; i < PlacementMaxRetries; i++ {
		pos := Vec2{
			X: randRange(rng, CivilianSize, MapWidth-CivilianSize),
			Y: randRange(rng, CivilianSize, MapHeight-CivilianSize),
		}
		if canWalk(pos) {
			return pos, true
		}
	}
	return Vec2{}, false
}

func overlapsAny(hb Rect, buildings []*Building) bool {
	for _, bd := range buildings {
		if Overlap(hb, bd.Hitbox()) {
			return true
		}
	}
	return false
}

// randRange 在 [min, max) 内取随机浮点
func randRange(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
