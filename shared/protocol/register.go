package protocol

import (
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/leap-fish/necs/esync"
)

// Sync ID constants - ID 1 is reserved by necs for NetworkId
const (
	SyncIDNetCharacter uint = 10
	SyncIDNetRelic     uint = 11
	SyncIDNetMatch     uint = 12
)

// Interpolation IDs (uint8 for WithInterpFn)
const (
	InterpIDNetCharacter uint8 = 10
	InterpIDNetRelic     uint8 = 11
)

// RegisterComponents registers all network components with necs for serialization.
// This must be called by both server and client before any network operations.
func RegisterComponents() error {
	// Register with interpolation for smooth client-side rendering
	if err := esync.RegisterComponent(
		SyncIDNetCharacter,
		netcomponents.NetCharacterData{},
		netcomponents.NetCharacter,
		esync.WithInterpFn(InterpIDNetCharacter, netcomponents.LerpNetCharacter),
	); err != nil {
		return err
	}

	if err := esync.RegisterComponent(
		SyncIDNetRelic,
		netcomponents.NetRelicData{},
		netcomponents.NetRelic,
		esync.WithInterpFn(InterpIDNetRelic, netcomponents.LerpNetRelic),
	); err != nil {
		return err
	}

	// Match: no interpolation (discrete state)
	if err := esync.RegisterComponent(
		SyncIDNetMatch,
		netcomponents.NetMatchData{},
		netcomponents.NetMatch,
	); err != nil {
		return err
	}

	return nil
}
