// Package settings holds the tuning values shared by client and server. Like
// netconfig it must stay free of ebiten imports so the dedicated server binary
// remains headless.
package settings

// MovementConfig contains all character movement tuning. Units are
// centimetres and seconds, Z is up.
type MovementConfig struct {
	// Capsule
	CapsuleRadius      float64
	CapsuleHalfHeight  float64
	CrouchedHalfHeight float64
	MaxStepHeight      float64
	WalkableFloorZ     float64 // cosine of the steepest walkable slope
	FloorProbeDistance float64

	// Walking
	MaxWalkSpeed           float64
	MaxWalkSpeedCrouched   float64
	MaxSprintSpeed         float64
	MaxAcceleration        float64
	GroundFriction         float64
	BrakingDecelWalking    float64
	BrakingFrictionFactor  float64
	BrakingSubStepTime     float64
	MinAnalogWalkSpeedFrac float64

	// Falling
	GravityZ               float64
	JumpZVelocity          float64
	AirControl             float64
	BrakingDecelFalling    float64
	FallingLateralFriction float64
	TerminalVelocity       float64

	// Simulation guards
	MaxSimulationTimeStep   float64
	MaxSimulationIterations int
	MinTickTime             float64
	MaxMoveDeltaTime        float64

	// Slide
	MinSpeedToEnterSlide            float64
	MinSlideSpeed                   float64
	MaxSlideSpeed                   float64
	SlideEnterBoost                 float64
	SlideGravityForce               float64
	SlideFrictionFactor             float64
	BrakingDecelSliding             float64
	SlideDirectionalControlStrength float64
	SlideLedgeProbeFactor           float64 // multiples of the capsule half height
	SlideJumpGrace                  float64

	// Dash
	DashCooldown     float64
	AuthDashCooldown float64
	DashDuration     float64
	DashSpeed        float64

	// Wall run
	EnableWallRun           bool
	MinWallRunSpeed         float64
	MaxWallRunSpeed         float64
	MaxVerticalWallRunSpeed float64
	WallRunPullAwayAngle    float64 // degrees
	WallAttractionForce     float64
	MinWallRunHeight        float64
	WallJumpOffForce        float64
	WallRunGravityCurve     []CurveKey

	// Networking
	PositionCorrectionThreshold float64
	NetSendInterval             float64
	MaxSavedMoves               int
}

// CurveKey is one key of a float curve; values between keys are eased with
// the named ease function ("linear", "inQuad", "outQuad", "inOutQuad",
// "inCubic", "outCubic", "inSine", "outSine").
type CurveKey struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
	Ease  string  `yaml:"ease"`
}

// RelicConfig contains the possession object tuning.
type RelicConfig struct {
	PickupRadius          float64
	AutoPickup            bool
	CarrierSpeedModifier  float64
	RestrictWhileCarrying []string
	SocketOffset          [3]float64
	PointsPerScore        int

	DropImpulse           [3]float64
	DropImpulseMultiplier float64
	EnableThrow           bool
	ThrowVelocity         float64
	ThrowAngle            float64 // degrees above the horizontal
	ThrowFlightTime       float64

	Mass          float64
	LinearDamping float64
	Radius        float64
	Restitution   float64
	GravityZ      float64

	DroppedTimeout              float64
	ScoringConfirmationDuration float64
	ResetDuration               float64
	ActivationDelay             float64

	UseRandomSpawnLocation bool
	DefaultSpawnLocation   [3]float64

	NetworkSmoothing   float64
	EstimatedLatency   float64
	MaxLatencyOffset   float64
	TeleportDistance   float64
	AttachBlendTime    float64
	PredictionStaleAge float64
}

// WatchdogConfig contains the recovery thresholds of the relic watchdog.
type WatchdogConfig struct {
	Enabled                 bool
	MaxTimeInDroppedState   float64
	MaxTimeInScoringState   float64
	MaxTimeInResettingState float64
	MaxTimeInThrownState    float64
	KillZ                   float64
}

// NetConfig contains replication settings.
type NetConfig struct {
	TickRate          int
	PhysicsSubsteps   int
	MaxQueuedMoves    int
	ReconnectTokenTTL float64 // seconds
}

var (
	Movement MovementConfig
	Relic    RelicConfig
	Watchdog WatchdogConfig
	Net      NetConfig
)

func init() {
	Movement = DefaultMovement()
	Relic = DefaultRelic()
	Watchdog = DefaultWatchdog()
	Net = DefaultNet()
}

func DefaultMovement() MovementConfig {
	return MovementConfig{
		CapsuleRadius:      34,
		CapsuleHalfHeight:  88,
		CrouchedHalfHeight: 44,
		MaxStepHeight:      45,
		WalkableFloorZ:     0.71,
		FloorProbeDistance: 2.4,

		MaxWalkSpeed:           600,
		MaxWalkSpeedCrouched:   300,
		MaxSprintSpeed:         750,
		MaxAcceleration:        2048,
		GroundFriction:         8,
		BrakingDecelWalking:    2048,
		BrakingFrictionFactor:  2,
		BrakingSubStepTime:     1.0 / 33.0,
		MinAnalogWalkSpeedFrac: 0,

		GravityZ:               -980,
		JumpZVelocity:          700,
		AirControl:             0.35,
		BrakingDecelFalling:    0,
		FallingLateralFriction: 0,
		TerminalVelocity:       4000,

		MaxSimulationTimeStep:   0.05,
		MaxSimulationIterations: 8,
		MinTickTime:             1e-6,
		MaxMoveDeltaTime:        0.125,

		MinSpeedToEnterSlide:            400,
		MinSlideSpeed:                   100,
		MaxSlideSpeed:                   400,
		SlideEnterBoost:                 100,
		SlideGravityForce:               4000,
		SlideFrictionFactor:             0.06,
		BrakingDecelSliding:             1000,
		SlideDirectionalControlStrength: 100,
		SlideLedgeProbeFactor:           2.5,
		SlideJumpGrace:                  0.25,

		DashCooldown:     1.0,
		AuthDashCooldown: 0.9,
		DashDuration:     0.25,
		DashSpeed:        1800,

		EnableWallRun:           true,
		MinWallRunSpeed:         200,
		MaxWallRunSpeed:         800,
		MaxVerticalWallRunSpeed: 200,
		WallRunPullAwayAngle:    75,
		WallAttractionForce:     200,
		MinWallRunHeight:        50,
		WallJumpOffForce:        300,
		WallRunGravityCurve: []CurveKey{
			{Time: -1, Value: 1.2, Ease: "linear"},
			{Time: 0, Value: 0.4, Ease: "outQuad"},
			{Time: 1, Value: 0.2, Ease: "linear"},
		},

		PositionCorrectionThreshold: 3,
		NetSendInterval:             1.0 / 30.0,
		MaxSavedMoves:               96,
	}
}

func DefaultRelic() RelicConfig {
	return RelicConfig{
		PickupRadius:          150,
		AutoPickup:            true,
		CarrierSpeedModifier:  0.8,
		RestrictWhileCarrying: []string{"Ability.Dash", "Ability.WallRun"},
		SocketOffset:          [3]float64{20, -30, 40},
		PointsPerScore:        1,

		DropImpulse:           [3]float64{0, 0, 400},
		DropImpulseMultiplier: 1,
		EnableThrow:           true,
		ThrowVelocity:         1000,
		ThrowAngle:            30,
		ThrowFlightTime:       1.5,

		Mass:          10,
		LinearDamping: 1,
		Radius:        20,
		Restitution:   0.3,
		GravityZ:      -980,

		DroppedTimeout:              8,
		ScoringConfirmationDuration: 1,
		ResetDuration:               2,
		ActivationDelay:             1,

		UseRandomSpawnLocation: true,

		NetworkSmoothing:   0.1,
		EstimatedLatency:   0.1,
		MaxLatencyOffset:   200,
		TeleportDistance:   300,
		AttachBlendTime:    0.15,
		PredictionStaleAge: 2,
	}
}

func DefaultWatchdog() WatchdogConfig {
	return WatchdogConfig{
		Enabled:                 true,
		MaxTimeInDroppedState:   10,
		MaxTimeInScoringState:   5,
		MaxTimeInResettingState: 5,
		MaxTimeInThrownState:    5,
		KillZ:                   -5000,
	}
}

func DefaultNet() NetConfig {
	return NetConfig{
		TickRate:          20,
		PhysicsSubsteps:   3,
		MaxQueuedMoves:    64,
		ReconnectTokenTTL: 600,
	}
}
