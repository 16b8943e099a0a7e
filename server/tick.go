package server

import "time"

// run 房间主协程：模拟 Tick 与广播 Tick 各自定时，互不同步但绝不并发。
// 关闭 stopCh 即退出，两个 Ticker 随 defer 停止
func (r *Room) run() {
	sim := time.NewTicker(tickInterval)
	defer sim.Stop()
	broadcast := time.NewTicker(broadcastInterval)
	defer broadcast.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-sim.C:
			start := time.Now()
			r.stepSimulation()
			r.metrics.AddTick(time.Since(start).Nanoseconds())
		case <-broadcast.C:
			r.broadcastState()
		}
	}
}

// stepSimulation 单个模拟 Tick，固定顺序：
// 推进子弹（顺带移除超射程的）→ 推进箭头淡出 → 推进平民 AI → 碰撞结算
func (r *Room) stepSimulation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying {
		return
	}

	live := r.bullets[:0]
	for _, b := range r.bullets {
		b.Update()
		if !b.Expired() {
			live = append(live, b)
		}
	}
	r.bullets = live

	arrows := r.arrows[:0]
	for _, a := range r.arrows {
		a.Update()
		if !a.Faded() {
			arrows = append(arrows, a)
		}
	}
	r.arrows = arrows

	for _, c := range r.civilians {
		c.Update(tickInterval, r.canWalkHere, r.rng)
	}

	r.resolveCollisionsLocked()
}

// resolveCollisionsLocked 每 Tick 的碰撞扫描，确定性顺序、先中先得，
// 同一颗子弹一个 Tick 内至多结算一次：
//  1. 非猎人玩家 × 子弹：命中信使即终局（猎人胜）；其余只消耗子弹
//  2. 子弹 × 建筑：命中移除子弹，该子弹本 Tick 不再参与后续判定
//  3. 子弹 × 平民：双双移除并累加击杀数，超过上限即终局（猎人胜）
//
// 第二阶段额外检查：信使碰撞盒压到目的地即终局（信使胜）
func (r *Room) resolveCollisionsLocked() {
	spent := make(map[string]bool)

	for _, u := range r.users {
		if !u.Ready || u.Role == RoleHunter {
			continue
		}
		hb := u.Hitbox()
		for _, b := range r.bullets {
			if spent[b.ID] || !Overlap(hb, b.Hitbox()) {
				continue
			}
			spent[b.ID] = true
			u.send("shot", shotEvent{Bullet: b.snapshot()})
			if u.Role == RoleCourier {
				r.endGameLocked(RoleHunter, ReasonShotCourier)
				return
			}
			break
		}
	}

	for _, b := range r.bullets {
		if spent[b.ID] {
			continue
		}
		hb := b.Hitbox()
		for _, bd := range r.buildings {
			if Overlap(hb, bd.Hitbox()) {
				spent[b.ID] = true
				break
			}
		}
	}

	deadCivs := make(map[string]bool)
	for _, b := range r.bullets {
		if spent[b.ID] {
			continue
		}
		hb := b.Hitbox()
		for _, c := range r.civilians {
			if deadCivs[c.ID] || !Overlap(hb, c.Hitbox()) {
				continue
			}
			spent[b.ID] = true
			deadCivs[c.ID] = true
			r.civiliansKilled++
			r.metrics.IncCivilianKilled()
			if r.civiliansKilled > MaxCivilianKills {
				r.compactLocked(spent, deadCivs)
				r.endGameLocked(RoleHunter, ReasonCiviliansShot)
				return
			}
			break
		}
	}

	r.compactLocked(spent, deadCivs)

	if r.phase == PhaseTwo {
		for _, u := range r.users {
			if u.Ready && u.Role == RoleCourier && Overlap(u.Hitbox(), r.destination) {
				r.endGameLocked(RoleCourier, ReasonUnharmedArrival)
				return
			}
		}
	}
}

// compactLocked 按本 Tick 的结算结果收紧子弹与平民列表
func (r *Room) compactLocked(spent, deadCivs map[string]bool) {
	if len(spent) > 0 {
		bullets := r.bullets[:0]
		for _, b := range r.bullets {
			if !spent[b.ID] {
				bullets = append(bullets, b)
			}
		}
		r.bullets = bullets
	}
	if len(deadCivs) > 0 {
		civilians := r.civilians[:0]
		for _, c := range r.civilians {
			if !deadCivs[c.ID] {
				civilians = append(civilians, c)
			}
		}
		r.civilians = civilians
	}
}

// broadcastState 广播节拍：向已就绪的玩家推送整体快照，
// 并给压在信件上的非猎人玩家发送拾取提示（每拍至多一条）
func (r *Room) broadcastState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != StatePlaying {
		return
	}

	update := gameUpdate{
		Players:         make(map[string]playerSnapshot, len(r.users)),
		Bullets:         make([]bulletSnapshot, 0, len(r.bullets)),
		Arrows:          make([]arrowSnapshot, 0, len(r.arrows)),
		Messages:        make([]messageSnapshot, 0, len(r.messages)),
		Civilians:       make([]civilianSnapshot, 0, len(r.civilians)),
		CiviliansKilled: r.civiliansKilled,
	}
	for _, u := range r.users {
		if u.Ready {
			update.Players[u.ID] = u.snapshot()
		}
	}
	for _, b := range r.bullets {
		update.Bullets = append(update.Bullets, b.snapshot())
	}
	for _, a := range r.arrows {
		update.Arrows = append(update.Arrows, a.snapshot())
	}
	for _, m := range r.messages {
		update.Messages = append(update.Messages, m.snapshot())
	}
	for _, c := range r.civilians {
		update.Civilians = append(update.Civilians, c.snapshot())
	}

	payload := encodeEvent("game-update", update)
	if payload == nil {
		return
	}
	for _, u := range r.users {
		if !u.Ready || u.Conn == nil {
			continue
		}
		u.Conn.Enqueue(payload)
	}
	r.metrics.IncBroadcast()

	for _, u := range r.users {
		if !u.Ready || u.Role == RoleHunter {
			continue
		}
		hb := u.Hitbox()
		for _, m := range r.messages {
			if Overlap(hb, m.Hitbox()) {
				u.send("message-collision", messageCollisionEvent{Message: m.snapshot()})
				break
			}
		}
	}
}
