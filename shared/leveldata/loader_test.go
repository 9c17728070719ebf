package leveldata

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/go-gl/mathgl/mgl64"
)

func loadBundled(t *testing.T) *Arena {
	t.Helper()
	levels, names, err := LoadAllLevels(os.DirFS("../../assets"), "levels")
	if err != nil {
		t.Fatalf("LoadAllLevels: %v", err)
	}
	if len(names) == 0 || names[0] != "arena" {
		t.Fatalf("names = %v", names)
	}
	return levels["arena"]
}

func TestLoadBundledArena(t *testing.T) {
	a := loadBundled(t)
	if a.Width != 4000 || a.Height != 2000 {
		t.Errorf("size %dx%d", a.Width, a.Height)
	}
	if len(a.Blocks) != 12 || len(a.PlayerSpawns) != 4 || len(a.RelicSpawns) != 2 || len(a.Goals) != 2 {
		t.Fatalf("blocks %d spawns %d relic spawns %d goals %d",
			len(a.Blocks), len(a.PlayerSpawns), len(a.RelicSpawns), len(a.Goals))
	}

	ramps := 0
	for _, b := range a.Blocks {
		if b.Rise != "" {
			ramps++
		}
	}
	if ramps != 2 {
		t.Errorf("ramps = %d", ramps)
	}

	wantSpawn := [3]float64{3700, 1600, 100}
	if s, ok := a.SpawnFor(1, 3); !ok || s.Pos != wantSpawn {
		t.Errorf("SpawnFor(1, 3) = %+v, %v", s, ok)
	}
	if _, ok := a.SpawnFor(5, 0); ok {
		t.Error("spawn found for a team without spawns")
	}

	zones := a.GoalZones()
	if zones[0].Team != 0 || zones[0].Center() != (mgl64.Vec3{250, 1000, 150}) {
		t.Errorf("blue goal %+v center %v", zones[0], zones[0].Center())
	}
	if got := a.RelicSpawnPoints(); got[1] != (mgl64.Vec3{2000, 1600, 100}) {
		t.Errorf("relic spawns %v", got)
	}
}

func TestArenaCollisionWorld(t *testing.T) {
	world, err := loadBundled(t).CollisionWorld()
	if err != nil {
		t.Fatal(err)
	}
	body := collision.Box(34, 88)
	tests := []struct {
		name string
		p    mgl64.Vec3
		want bool
	}{
		{"inside pillar", mgl64.Vec3{2000, 1000, 300}, true},
		{"open floor", mgl64.Vec3{1000, 1000, 200}, false},
		{"sunk into floor", mgl64.Vec3{1000, 1000, 40}, true},
		{"inside east wall", mgl64.Vec3{3950, 1000, 200}, true},
	}
	for _, tt := range tests {
		if got := world.Overlap(body, tt.p); got != tt.want {
			t.Errorf("%s: Overlap = %v, want %v", tt.name, got, tt.want)
		}
	}
}

const badTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="2" height="2" tilewidth="100" tileheight="100" infinite="0">
 <objectgroup id="1" name="Geometry">
  <object id="1" name="floor" x="0" y="0" width="200" height="200">
   <properties>
    <property name="bottom" type="float" value="%BOTTOM%"/>
    <property name="top" type="float" value="0"/>
   </properties>
  </object>
 </objectgroup>
%RELIC%</map>
`

const relicGroup = ` <objectgroup id="2" name="RelicSpawn">
  <object id="2" name="relic" x="100" y="100">
   <properties>
    <property name="z" type="float" value="100"/>
   </properties>
  </object>
 </objectgroup>
`

func TestLoadArenaErrors(t *testing.T) {
	tests := []struct {
		name    string
		bottom  string
		relic   string
		wantErr string
	}{
		{"valid", "-100", relicGroup, ""},
		{"no relic spawn", "-100", "", "no relic spawns"},
		{"inverted block", "50", relicGroup, "below bottom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.NewReplacer("%BOTTOM%", tt.bottom, "%RELIC%", tt.relic).Replace(badTMX)
			fsys := fstest.MapFS{"levels/small.tmx": {Data: []byte(doc)}}
			a, err := LoadArena(fsys, "levels/small.tmx")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadArena: %v", err)
				}
				if a.Name != "small" || len(a.Blocks) != 1 || a.Blocks[0].Min[2] != -100 {
					t.Errorf("arena = %+v", a)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAllLevelsEmpty(t *testing.T) {
	if _, _, err := LoadAllLevels(fstest.MapFS{}, "levels"); err == nil {
		t.Error("expected an error for a directory without levels")
	}
}
