package scenes

import (
	"fmt"
	"log"
	"time"

	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const retryDelay = 3 * time.Second

// Password is the join password given on the command line. It is never saved.
var Password string

// ConnectScene dials the saved server address and hands over to the
// networked scene once the join is accepted. Failures are retried.
type ConnectScene struct {
	sceneChanger SceneChanger
	netClient    *network.Client
	status       string
	retryAt      time.Time
}

func NewConnectScene(sc SceneChanger) *ConnectScene {
	return &ConnectScene{sceneChanger: sc}
}

func (s *ConnectScene) Update() {
	if s.netClient == nil {
		if time.Now().Before(s.retryAt) {
			return
		}
		s.connect()
		return
	}

	switch s.netClient.State() {
	case network.StateJoinedGame:
		s.status = "Joined! Loading game..."
		log.Printf("[client] joined %s", s.netClient.ServerName())
		s.sceneChanger.ChangeScene(NewNetworkedScene(s.sceneChanger, s.netClient))
	case network.StateError, network.StateDisconnected:
		errMsg := "Connection failed"
		if err := s.netClient.LastError(); err != nil {
			errMsg = err.Error()
		}
		s.status = fmt.Sprintf("%s, retrying...", errMsg)
		s.netClient.Disconnect()
		s.netClient = nil
		s.retryAt = time.Now().Add(retryDelay)
	case network.StateConnecting:
		s.status = "Connecting..."
	case network.StateConnected:
		s.status = "Connected, joining game..."
	}
}

func (s *ConnectScene) connect() {
	addr := cfg.Settings.ServerAddress
	s.status = fmt.Sprintf("Connecting to %s...", addr)
	s.netClient = network.NewClient()
	s.netClient.Connect(addr, network.Credentials{
		PlayerName:     cfg.Settings.PlayerName,
		Password:       Password,
		ReconnectToken: cfg.Settings.ReconnectToken,
	})
}

func (s *ConnectScene) Draw(screen *ebiten.Image) {
	screen.Fill(cfg.DarkGrey)
	ebitenutil.DebugPrintAt(screen, s.status, 20, 20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s as %s", cfg.Settings.ServerAddress, cfg.Settings.PlayerName), 20, 40)
}
