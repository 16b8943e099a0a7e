package server

import "math"

// Vec2 平面坐标或速度（服务端权威世界均用浮点坐标）
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect 轴对齐碰撞矩形，X/Y 为左上角
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectFromCenter 由中心点与宽高构造矩形
// 所有实体碰撞盒统一采用“中心锚定”约定：(center - size/2, size)
func RectFromCenter(center Vec2, w, h float64) Rect {
	return Rect{X: center.X - w/2, Y: center.Y - h/2, W: w, H: h}
}

// Overlap 矩形相交测试（严格不等号：边恰好贴合视为不相交）
func Overlap(a, b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// Dist 两点欧氏距离
func Dist(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
