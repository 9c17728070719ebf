package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a tuning file. Keys inside each section
// are the lower-cased field names, e.g.
//
//	movement:
//	  maxsprintspeed: 800
//	relic:
//	  enablethrow: false
type document struct {
	Movement MovementConfig `yaml:"movement"`
	Relic    RelicConfig    `yaml:"relic"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Net      NetConfig      `yaml:"net"`
}

// LoadOverrides reads a YAML tuning file and merges it over the current
// globals. Fields absent from the file keep their values.
func LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning %s: %w", path, err)
	}
	return ApplyOverrides(data)
}

// ApplyOverrides merges YAML data over the current globals. On error the
// globals are left untouched.
func ApplyOverrides(data []byte) error {
	doc := document{
		Movement: Movement,
		Relic:    Relic,
		Watchdog: Watchdog,
		Net:      Net,
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse tuning: %w", err)
	}
	if err := doc.validate(); err != nil {
		return err
	}
	Movement = doc.Movement
	Relic = doc.Relic
	Watchdog = doc.Watchdog
	Net = doc.Net
	return nil
}

func (d *document) validate() error {
	var errs []error
	m := d.Movement
	if m.AuthDashCooldown > m.DashCooldown {
		errs = append(errs, fmt.Errorf("movement: authdashcooldown %.3f exceeds dashcooldown %.3f", m.AuthDashCooldown, m.DashCooldown))
	}
	if m.MaxSimulationIterations < 1 {
		errs = append(errs, errors.New("movement: maxsimulationiterations must be at least 1"))
	}
	if m.MinTickTime <= 0 {
		errs = append(errs, errors.New("movement: minticktime must be positive"))
	}
	if len(m.WallRunGravityCurve) == 0 {
		errs = append(errs, errors.New("movement: wallrungravitycurve needs at least one key"))
	}
	if d.Net.TickRate <= 0 {
		errs = append(errs, errors.New("net: tickrate must be positive"))
	}
	if d.Relic.NetworkSmoothing <= 0 {
		errs = append(errs, errors.New("relic: networksmoothing must be positive"))
	}
	return errors.Join(errs...)
}
