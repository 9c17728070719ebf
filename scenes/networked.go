package scenes

import (
	"log"
	"strings"
	"sync"

	"github.com/automoto/breakaway-mp/assets"
	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/automoto/breakaway-mp/shared/leveldata"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/automoto/breakaway-mp/systems"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

type NetworkedScene struct {
	ecsWorld     *ecs.ECS
	sceneChanger SceneChanger
	netClient    *network.Client
	prediction   *network.Prediction
	once         sync.Once
	presentIDs   map[esync.NetworkId]bool
}

func NewNetworkedScene(sc SceneChanger, client *network.Client) *NetworkedScene {
	return &NetworkedScene{
		sceneChanger: sc,
		netClient:    client,
		presentIDs:   make(map[esync.NetworkId]bool),
	}
}

func (ns *NetworkedScene) Update() {
	ns.once.Do(ns.configure)

	state := ns.netClient.State()
	if state == network.StateDisconnected || state == network.StateError {
		log.Println("[networked] disconnected, reconnecting")
		ns.netClient.Disconnect()
		ns.sceneChanger.ChangeScene(NewConnectScene(ns.sceneChanger))
		return
	}

	if snap := ns.netClient.LatestSnapshot(); snap != nil {
		ns.applySnapshot(*snap)
	}

	ns.ecsWorld.Update()
}

func (ns *NetworkedScene) Draw(screen *ebiten.Image) {
	screen.Fill(cfg.DarkGrey)

	if ns.ecsWorld == nil {
		return
	}

	ns.ecsWorld.Draw(screen)
}

func (ns *NetworkedScene) configure() {
	ns.ecsWorld = ecs.NewECS(donburi.NewWorld())
	world := ns.ecsWorld.World

	arena := loadArena(ns.netClient.Level())
	collisionWorld, err := arena.CollisionWorld()
	if err != nil {
		log.Fatalf("[networked] level %s: %v", arena.Name, err)
	}
	levelEntry := world.Entry(world.Create(components.Level))
	components.Level.SetValue(levelEntry, components.LevelData{Name: arena.Name, Arena: arena, World: collisionWorld})

	team := ns.netClient.Team()
	spawn, _ := arena.SpawnFor(team, 0)
	ns.prediction = network.NewPrediction(collisionWorld, relic.ID(ns.netClient.NetworkID()), team, spawn.Pos, ns.netClient)

	cameraEntry := world.Entry(world.Create(components.Camera))
	camera := components.CameraData{Zoom: cfg.Camera.Zoom}
	camera.Position.X, camera.Position.Y = spawn.Pos[0], spawn.Pos[1]
	components.Camera.SetValue(cameraEntry, camera)

	// Keep the token so a restart rejoins the same team.
	cfg.Settings.ReconnectToken = ns.netClient.ReconnectToken()
	systems.SaveCurrentSettings()

	pred := ns.prediction
	localPosition := func() (mgl64.Vec3, bool) {
		return pred.Predictor.Char.State.Position, pred.Synced()
	}
	ns.ecsWorld.AddSystem(systems.UpdateInput)
	ns.ecsWorld.AddSystem(systems.NewMoveInputSystem(pred))
	ns.ecsWorld.AddSystem(systems.NewNetInterpSystem(ns.netClient.TickRate))
	ns.ecsWorld.AddSystem(systems.NewNetEventSystem(ns.netClient))
	ns.ecsWorld.AddSystem(systems.UpdateFeed)
	ns.ecsWorld.AddSystem(systems.NewNetCameraSystem(localPosition))
	ns.ecsWorld.AddRenderer(cfg.LayerWorld, systems.DrawArena)
	ns.ecsWorld.AddRenderer(cfg.LayerWorld, systems.NewPlayerRenderer(pred))
	ns.ecsWorld.AddRenderer(cfg.LayerWorld, systems.NewRelicRenderer(pred))
	ns.ecsWorld.AddRenderer(cfg.LayerWorld, systems.NewDebugRenderer(pred))
	ns.ecsWorld.AddRenderer(cfg.LayerHUD, systems.NewHUDRenderer(pred))
	ns.ecsWorld.AddRenderer(cfg.LayerHUD, systems.DrawFeed)
}

// loadArena returns the bundled level matching name, or the first level.
func loadArena(name string) *leveldata.Arena {
	loader := assets.NewLevelLoader()
	names := loader.MustLoadLevels()
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return loader.MustLoadLevel(n)
		}
	}
	log.Printf("[networked] Warning: level %q not bundled, using %s", name, names[0])
	return loader.MustLoadLevel(names[0])
}

func (ns *NetworkedScene) applySnapshot(snapshot esync.WorldSnapshot) {
	world := ns.ecsWorld.World
	myNetID := ns.netClient.NetworkID()
	pred := ns.prediction

	clear(ns.presentIDs)

	var netRelic *netcomponents.NetRelicData
	var resolvedKey uint32

	for _, ent := range snapshot {
		ns.presentIDs[ent.Id] = true

		entity := esync.FindByNetworkId(world, ent.Id)
		if !world.Valid(entity) {
			entity = world.Create(esync.NetworkIdComponent)
			esync.NetworkIdComponent.SetValue(world.Entry(entity), ent.Id)
		}
		entry := world.Entry(entity)

		for _, componentBytes := range ent.State {
			instance, err := esync.Mapper.Deserialize(componentBytes)
			if err != nil {
				continue
			}
			switch v := instance.(type) {
			case netcomponents.NetCharacterData:
				v.IsLocal = ent.Id == myNetID
				setComponent(entry, netcomponents.NetCharacter, v)
				if v.IsLocal {
					pred.ApplyLocal(v)
					resolvedKey = v.RelicKey
					continue
				}
				pred.ApplyRemote(relic.ID(ent.Id), v)
				if !entry.HasComponent(components.NetInterp) {
					entry.AddComponent(components.NetInterp)
				}
				components.NetInterp.Get(entry).Push(v.Move.Position)
			case netcomponents.NetRelicData:
				setComponent(entry, netcomponents.NetRelic, v)
				netRelic = &v
			case netcomponents.NetMatchData:
				setComponent(entry, netcomponents.NetMatch, v)
				applyMatch(ns.ecsWorld, v)
			}
		}
	}

	// The relic goes last so the key answered for us in this snapshot is known.
	if netRelic != nil {
		pred.ApplyRelic(*netRelic, resolvedKey)
	}

	pred.Forget(func(id relic.ID) bool { return ns.presentIDs[esync.NetworkId(id)] })
	esync.NetworkEntityQuery.Each(world, func(entry *donburi.Entry) {
		id := esync.GetNetworkId(entry)
		if id == nil {
			return
		}
		if !ns.presentIDs[*id] {
			entry.Remove()
		}
	})
}

func applyMatch(e *ecs.ECS, d netcomponents.NetMatchData) {
	entry, ok := components.Match.First(e.World)
	if !ok {
		entry = e.World.Entry(e.World.Create(components.Match))
		components.Match.SetValue(entry, components.MatchData{FlashTeam: -1})
	}
	m := components.Match.Get(entry)
	m.State = d.MatchState
	m.Scores = append(m.Scores[:0], d.Scores...)
}

func setComponent[T any](entry *donburi.Entry, c *donburi.ComponentType[T], v T) {
	if !entry.HasComponent(c) {
		entry.AddComponent(c)
	}
	c.SetValue(entry, v)
}
