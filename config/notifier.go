package config

import (
	"fmt"

	"github.com/ananya-001/FleetFlow/infra/notify"
)

// NotifierConfig wires the MQTT transition notifier. Disabled by default:
// the engine runs fine without a broker.
type NotifierConfig struct {
	Enabled bool          `json:"enabled"`
	MQTT    notify.Config `json:"mqtt"`
}

// Validate checks mandatory fields when the notifier is enabled.
func (c NotifierConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.MQTT.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	return nil
}
