package server

import (
	"math"
	"math/rand"
	"time"
)

// CivState 平民行为状态
type CivState int

const (
	CivWalking CivState = iota
	CivStatic
)

// CivDir 八向罗盘方向
type CivDir int

const (
	DirN CivDir = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// civDirVec 各方向的单位向量（对角线归一化，保证恒定步速）
var civDirVec = [8]Vec2{
	{0, -1},
	{math.Sqrt2 / 2, -math.Sqrt2 / 2},
	{1, 0},
	{math.Sqrt2 / 2, math.Sqrt2 / 2},
	{0, 1},
	{-math.Sqrt2 / 2, math.Sqrt2 / 2},
	{-1, 0},
	{-math.Sqrt2 / 2, -math.Sqrt2 / 2},
}

// civNextDirs 换向候选表：剔除“正对面”及其两侧对角，避免来回抖动
// 例如向北走时不允许直接翻转成南、西南、东南
var civNextDirs [8][]CivDir

func init() {
	for d := 0; d < 8; d++ {
		excluded := map[int]bool{
			(d + 3) % 8: true,
			(d + 4) % 8: true,
			(d + 5) % 8: true,
		}
		for n := 0; n < 8; n++ {
			if !excluded[n] {
				civNextDirs[d] = append(civNextDirs[d], CivDir(n))
			}
		}
	}
}

const civStaticChance = 0.25

// 驻足与换向的随机时间窗
var (
	civWaitMin    = 7 * time.Second
	civWaitMax    = 13 * time.Second
	civWalkDirMin = 500 * time.Millisecond
	civWalkDirMax = time.Second
)

// Civilian 中立人群个体：在建筑间游走，被子弹击中即死亡并计入击杀数。
// 避障只看静态建筑与世界边界，不做平民间互避（数量级下够用且便宜）。
type Civilian struct {
	ID    string
	Pos   Vec2
	Dir   CivDir
	State CivState

	timeWaited     time.Duration
	maxWaitTime    time.Duration
	walkDirTime    time.Duration
	maxWalkDirTime time.Duration
}

// NewCivilian 以随机初始状态落位
func NewCivilian(pos Vec2, rng *rand.Rand) *Civilian {
	c := &Civilian{ID: genID(), Pos: pos, Dir: CivDir(rng.Intn(8))}
	c.decide(rng, nil)
	return c
}

func (c *Civilian) Hitbox() Rect {
	return RectFromCenter(c.Pos, CivilianSize, CivilianSize)
}

func (c *Civilian) snapshot() civilianSnapshot {
	return civilianSnapshot{ID: c.ID, Pos: c.Pos, Dir: c.Dir, State: c.State}
}

// Update 推进一个 Tick：驻足计时或者游走换向/移动
// canWalk 判断候选位置是否合法（边界内且不压建筑）
func (c *Civilian) Update(dt time.Duration, canWalk func(Vec2) bool, rng *rand.Rand) {
	switch c.State {
	case CivStatic:
		c.timeWaited += dt
		if c.timeWaited >= c.maxWaitTime {
			c.decide(rng, canWalk)
		}
	case CivWalking:
		c.walkDirTime += dt
		next := c.nextPos()
		if c.walkDirTime >= c.maxWalkDirTime || !canWalk(next) {
			c.decide(rng, canWalk)
			if c.State != CivWalking {
				return
			}
			next = c.nextPos()
			if !canWalk(next) {
				// 回退集兜底选出的方向仍被堵住：本 Tick 原地等下一次决策
				return
			}
		}
		c.Pos = next
	}
}

func (c *Civilian) nextPos() Vec2 {
	v := civDirVec[c.Dir]
	return Vec2{X: c.Pos.X + v.X*CivilianSpeed, Y: c.Pos.Y + v.Y*CivilianSpeed}
}

// decide 决策点：约 25% 驻足、75% 游走，并重掷对应的时间窗
func (c *Civilian) decide(rng *rand.Rand, canWalk func(Vec2) bool) {
	if rng.Float64() < civStaticChance {
		c.State = CivStatic
		c.timeWaited = 0
		c.maxWaitTime = randDuration(rng, civWaitMin, civWaitMax)
		return
	}
	c.State = CivWalking
	c.walkDirTime = 0
	c.maxWalkDirTime = randDuration(rng, civWalkDirMin, civWalkDirMax)
	c.Dir = c.pickDir(rng, canWalk)
}

// pickDir 在换向候选表内优先挑不会撞进障碍的方向；候选全堵时放宽到
// 全部八向再筛一遍，仍然全堵则回退到未过滤集合，保证不会永久卡死
func (c *Civilian) pickDir(rng *rand.Rand, canWalk func(Vec2) bool) CivDir {
	if canWalk != nil {
		for _, candidates := range [][]CivDir{civNextDirs[c.Dir], allDirs} {
			open := make([]CivDir, 0, len(candidates))
			for _, d := range candidates {
				v := civDirVec[d]
				next := Vec2{X: c.Pos.X + v.X*CivilianSpeed, Y: c.Pos.Y + v.Y*CivilianSpeed}
				if canWalk(next) {
					open = append(open, d)
				}
			}
			if len(open) > 0 {
				return open[rng.Intn(len(open))]
			}
		}
	}
	candidates := civNextDirs[c.Dir]
	return candidates[rng.Intn(len(candidates))]
}

var allDirs = []CivDir{DirN, DirNE, DirE, DirSE, DirS, DirSW, DirW, DirNW}

// randDuration 在 [min, max) 内取随机时长
func randDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	return min + time.Duration(rng.Int63n(int64(max-min)))
}
