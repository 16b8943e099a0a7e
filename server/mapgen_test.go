package server

import (
	"math/rand"
	"testing"
)

// walkCheck 与房间的 canWalkHere 等价的独立判定，供不建房的测试使用
func walkCheck(buildings []*Building) func(Vec2) bool {
	return func(pos Vec2) bool {
		hb := RectFromCenter(pos, CivilianSize, CivilianSize)
		if hb.X < 0 || hb.Y < 0 || hb.X+hb.W > MapWidth || hb.Y+hb.H > MapHeight {
			return false
		}
		return !overlapsAny(hb, buildings)
	}
}

func TestGenerateBuildingsNoOverlap(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		buildings := generateBuildings(rng)
		if len(buildings) == 0 {
			t.Fatalf("seed %d: no buildings generated", seed)
		}
		for i, a := range buildings {
			hb := a.Hitbox()
			if hb.X < 0 || hb.Y < 0 || hb.X+hb.W > MapWidth || hb.Y+hb.H > MapHeight {
				t.Errorf("seed %d: building %d out of bounds: %v", seed, i, hb)
			}
			for j := i + 1; j < len(buildings); j++ {
				if Overlap(hb, buildings[j].Hitbox()) {
					t.Errorf("seed %d: buildings %d and %d overlap", seed, i, j)
				}
			}
		}
	}
}

func TestSpawnCiviliansOnOpenGround(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	buildings := generateBuildings(rng)
	canWalk := walkCheck(buildings)
	civilians := spawnCivilians(rng, canWalk)
	if len(civilians) == 0 {
		t.Fatal("no civilians spawned")
	}
	for _, c := range civilians {
		if !canWalk(c.Pos) {
			t.Errorf("civilian %s spawned at blocked position %v", c.ID, c.Pos)
		}
	}
}

func TestSpawnInitialMessages(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	buildings := generateBuildings(rng)
	messages := spawnInitialMessages(rng, walkCheck(buildings))
	if len(messages) != InitialMessages {
		t.Fatalf("spawned %d messages, want %d", len(messages), InitialMessages)
	}
	objectives := 0
	for _, m := range messages {
		if m.Objective {
			objectives++
		}
	}
	if objectives != 1 {
		t.Errorf("objective messages = %d, want exactly 1", objectives)
	}
}

func TestPickDestinationClearOfBuildings(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		buildings := generateBuildings(rng)
		dest := pickDestination(rng, buildings)
		if dest.X < 0 || dest.Y < 0 || dest.X+dest.W > MapWidth || dest.Y+dest.H > MapHeight {
			t.Errorf("seed %d: destination out of bounds: %v", seed, dest)
		}
		if overlapsAny(dest, buildings) {
			t.Errorf("seed %d: destination overlaps a building", seed)
		}
	}
}

func TestFindOpenSpotGivesUpWhenBlocked(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// 永远不放行：必须在重试上限内放弃而不是死转
	if _, ok := findOpenSpot(rng, func(Vec2) bool { return false }); ok {
		t.Error("findOpenSpot reported success with a fully blocked map")
	}
}
