package config

import (
	"encoding/json"
	"io"
)

// HALConfig lists the sensors the HAL should bring up.
type HALConfig struct {
	Devices []Device `json:"devices"`
}

// Device describes one physical sensor managed by HAL.
type Device struct {
	ID     string `json:"id"`
	Type   string `json:"type"`             // "dht11" or "dht22"
	Params any    `json:"params,omitempty"` // e.g. {"pin": 4}
}

// Decode reads a JSON HALConfig. Unknown fields are rejected so typos in
// hand-written files surface early.
func Decode(r io.Reader) (HALConfig, error) {
	var cfg HALConfig
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return HALConfig{}, err
	}
	return cfg, nil
}
