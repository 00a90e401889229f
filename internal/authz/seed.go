package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the role to permission assignment loaded from a YAML file.
type Seed struct {
	Roles []SeedRole `yaml:"roles"`
}

// SeedRole is one role entry of a Seed.
type SeedRole struct {
	Name        Role         `yaml:"name"`
	Description string       `yaml:"description"`
	Permissions []Permission `yaml:"permissions"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a seed document. Unknown roles, unknown
// permission codes and duplicate roles are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse role seed: %w", err)
	}

	seen := make(map[Role]bool, len(seed.Roles))
	for _, r := range seed.Roles {
		if !r.Name.Valid() {
			return nil, fmt.Errorf("unknown role %q in seed", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate role %q in seed", r.Name)
		}
		seen[r.Name] = true
		for _, p := range r.Permissions {
			if !p.Valid() {
				return nil, fmt.Errorf("unknown permission %q for role %q", p, r.Name)
			}
		}
	}
	return &seed, nil
}

// Grants returns the permissions the seed assigns to role.
func (s *Seed) Grants(role Role) []Permission {
	for _, r := range s.Roles {
		if r.Name == role {
			return r.Permissions
		}
	}
	return nil
}
