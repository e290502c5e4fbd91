package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoomSeed is one room declared in the seed file.
type RoomSeed struct {
	Number    string  `yaml:"number"`
	Type      string  `yaml:"type"`
	Price     float64 `yaml:"price"`
	InService *bool   `yaml:"in_service,omitempty"`
}

// RoomsSeed is the root of rooms.yaml: rooms created at startup when missing.
type RoomsSeed struct {
	Rooms []RoomSeed `yaml:"rooms"`
}

// LoadRoomsSeed loads and validates the room seed file.
func LoadRoomsSeed(path string) (*RoomsSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms seed: %w", err)
	}

	var seed RoomsSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse rooms seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks for blank and duplicate room numbers.
func (s *RoomsSeed) Validate() error {
	seen := make(map[string]bool, len(s.Rooms))
	for i, r := range s.Rooms {
		number := strings.TrimSpace(r.Number)
		if number == "" {
			return fmt.Errorf("room #%d: number is required", i+1)
		}
		if seen[number] {
			return fmt.Errorf("duplicate room number: %s", number)
		}
		seen[number] = true
	}
	return nil
}
