package core

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/automoto/breakaway-mp/shared/messages"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/oklog/ulid/v2"
	"github.com/yohamta/donburi"
)

// peer is the part of a network client the server talks to.
type peer interface {
	Id() string
	SendMessage(msg any) error
}

// session is a joined client.
type session struct {
	peer   peer
	entity donburi.Entity
	id     relic.ID
}

// Options configures a Server.
type Options struct {
	Name     string
	TickRate int
	Level    *ServerLevel
	Auth     *Auth
	Recorder Recorder // may be nil
	MatchID  ulid.ULID
	// MinPlayers is how many players must join before the relic activates.
	MinPlayers int
}

// Server manages the game state and client connections
type Server struct {
	world     donburi.World
	loop      *GameLoop
	transport *transports.WsServerTransport
	name      string
	auth      *Auth
	match     *Match

	relicEntity donburi.Entity
	matchEntity donburi.Entity

	// Router callbacks run on necs goroutines; they queue commands that the
	// loop runs between ticks.
	mu       sync.Mutex
	commands []func()

	// Loop goroutine only.
	sessions map[peer]*session
}

// NewServer creates a new game server
func NewServer(opts Options) (*Server, error) {
	world := donburi.NewWorld()

	s := &Server{
		world:    world,
		name:     opts.Name,
		auth:     opts.Auth,
		sessions: make(map[peer]*session),
	}
	s.match = NewMatch(opts.MatchID, opts.Level, opts.Recorder, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	if opts.MinPlayers > 0 {
		s.match.MinPlayers = opts.MinPlayers
	}
	s.loop = NewGameLoop(s, opts.TickRate)

	// Set up the world for esync
	srvsync.UseEsync(world)

	s.relicEntity = world.Create(netcomponents.NetRelic)
	if err := srvsync.NetworkSync(world, &s.relicEntity,
		srvsync.WithInterp(netcomponents.NetRelic),
	); err != nil {
		return nil, fmt.Errorf("sync relic: %w", err)
	}
	s.matchEntity = world.Create(netcomponents.NetMatch)
	if err := srvsync.NetworkSync(world, &s.matchEntity, netcomponents.NetMatch); err != nil {
		return nil, fmt.Errorf("sync match: %w", err)
	}
	s.writeNetState()

	// Register router callbacks
	s.setupRouterCallbacks()

	return s, nil
}

// Start begins the server on the given port
func (s *Server) Start(port uint) error {
	// Start game loop
	go s.loop.Run()

	// Create and start WebSocket transport
	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		log.Printf("[server] client connected: %s", client.Id())
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		if err != nil {
			log.Printf("[server] client %s disconnected with error: %v", client.Id(), err)
		} else {
			log.Printf("[server] client %s disconnected", client.Id())
		}
		s.enqueue(func() { s.handleLeave(client) })
	})

	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		s.enqueue(func() { s.handleJoin(client, msg) })
	})

	router.On(func(client *router.NetworkClient, msg messages.ServerMovePacked) {
		s.enqueue(func() { s.handleMoves(client, msg) })
	})

	router.On(func(client *router.NetworkClient, msg messages.RelicRequest) {
		s.enqueue(func() { s.handleRelicRequest(client, msg) })
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[server] client error: %v", err)
	})
}

func (s *Server) enqueue(cmd func()) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
}

// ProcessCommands runs the commands queued by router callbacks, in arrival
// order.
func (s *Server) ProcessCommands() {
	s.mu.Lock()
	cmds := s.commands
	s.commands = nil
	s.mu.Unlock()

	for _, cmd := range cmds {
		cmd()
	}
}

// admit decides whether a join request is let in and with which name and
// team. A negative team means balance.
func (s *Server) admit(req messages.JoinRequest) (name string, team int, err error) {
	if req.Version != netconfig.ProtocolVersion {
		return "", 0, fmt.Errorf("version mismatch: server %s, client %s", netconfig.ProtocolVersion, req.Version)
	}
	name, team = req.PlayerName, -1
	if name == "" {
		name = "player"
	}
	if req.ReconnectToken != "" {
		claims, err := s.auth.ParseToken(req.ReconnectToken)
		if err == nil {
			log.Printf("[server] %s reconnected on team %s", claims.Name, netconfig.TeamName(claims.Team))
			return claims.Name, claims.Team, nil
		}
		log.Printf("[server] Warning: reconnect token of %s refused: %v", name, err)
	}
	if err := s.auth.CheckPassword(req.Password); err != nil {
		return "", 0, err
	}
	return name, team, nil
}

func (s *Server) handleJoin(c peer, req messages.JoinRequest) {
	if _, ok := s.sessions[c]; ok {
		return
	}
	name, team, err := s.admit(req)
	if err != nil {
		log.Printf("[server] join of %q rejected: %v", req.PlayerName, err)
		s.send(c, messages.JoinRejected{Reason: err.Error()})
		return
	}

	entity := s.world.Create(netcomponents.NetCharacter)
	if err := srvsync.NetworkSync(s.world, &entity,
		srvsync.WithInterp(netcomponents.NetCharacter),
	); err != nil {
		log.Printf("[server] failed to setup network sync for %s: %v", name, err)
		s.world.Remove(entity)
		s.send(c, messages.JoinRejected{Reason: "internal error"})
		return
	}
	nid := esync.GetNetworkId(s.world.Entry(entity))
	if nid == nil {
		log.Printf("[server] %s has no network id", name)
		s.world.Remove(entity)
		s.send(c, messages.JoinRejected{Reason: "internal error"})
		return
	}

	p := s.match.AddPlayer(relic.ID(*nid), name, team)
	s.sessions[c] = &session{peer: c, entity: entity, id: p.ID}
	netcomponents.NetCharacter.Set(s.world.Entry(entity), ptr(p.NetData()))

	token, err := s.auth.IssueToken(p.Name, p.Team)
	if err != nil {
		log.Printf("[server] Warning: %v", err)
	}
	s.send(c, messages.JoinAccepted{
		NetworkID:      *nid,
		ReconnectToken: token,
		ServerName:     s.name,
		TickRate:       s.loop.tickRate,
		Level:          s.match.Level.Arena.Name,
		Team:           p.Team,
		MatchID:        s.match.ID.String(),
	})
	log.Printf("[server] player %s spawned for client %s", p.Name, c.Id())
}

func (s *Server) handleLeave(c peer) {
	sess, ok := s.sessions[c]
	if !ok {
		return
	}
	delete(s.sessions, c)
	s.match.RemovePlayer(sess.id)
	if s.world.Valid(sess.entity) {
		s.world.Remove(sess.entity)
	}
}

func (s *Server) handleMoves(c peer, msg messages.ServerMovePacked) {
	sess, ok := s.sessions[c]
	if !ok {
		return
	}
	pkt, err := movement.DecodeMoves(msg.Bits, msg.NumBits)
	if err != nil {
		log.Printf("[server] Warning: bad move packet from %s: %v", c.Id(), err)
		return
	}
	s.match.QueueMoves(sess.id, pkt)
}

func (s *Server) handleRelicRequest(c peer, req messages.RelicRequest) {
	if sess, ok := s.sessions[c]; ok {
		s.match.HandleRelicRequest(sess.id, req)
	}
}

// step advances the match and publishes the result.
func (s *Server) step(dt float64) {
	s.match.Step(dt)
	s.writeNetState()
	for _, evt := range s.match.DrainEvents() {
		s.broadcast(evt)
	}
}

// writeNetState copies the simulation into the replicated components.
func (s *Server) writeNetState() {
	for _, sess := range s.sessions {
		p, ok := s.match.Player(sess.id)
		if !ok || !s.world.Valid(sess.entity) {
			continue
		}
		netcomponents.NetCharacter.Set(s.world.Entry(sess.entity), ptr(p.NetData()))
	}
	netcomponents.NetRelic.Set(s.world.Entry(s.relicEntity), ptr(s.match.NetRelic()))
	netcomponents.NetMatch.Set(s.world.Entry(s.matchEntity), ptr(s.match.NetMatch()))
}

func (s *Server) broadcast(msg any) {
	for _, sess := range s.sessions {
		s.send(sess.peer, msg)
	}
}

func (s *Server) send(c peer, msg any) {
	if err := c.SendMessage(msg); err != nil {
		log.Printf("[server] Warning: send %T to %s: %v", msg, c.Id(), err)
	}
}

// World returns the ECS world
func (s *Server) World() donburi.World {
	return s.world
}

// Match returns the simulation driven by the loop.
func (s *Server) Match() *Match {
	return s.match
}

// PlayerCount returns the number of joined players. Loop goroutine only.
func (s *Server) PlayerCount() int {
	return len(s.sessions)
}

func ptr[T any](v T) *T { return &v }
