package qualityprofile

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// BuiltInProfile describes a quality profile shipped with the server
type BuiltInProfile struct {
	Language  string `yaml:"language"`
	Name      string `yaml:"name"`
	IsDefault bool   `yaml:"default"`
}

// Registry enumerates the built-in profiles
type Registry interface {
	BuiltIns() []BuiltInProfile
}

// StaticRegistry is a Registry filled in code or from a YAML file
type StaticRegistry struct {
	mu       sync.RWMutex
	profiles []BuiltInProfile
}

// NewStaticRegistry creates a registry holding the given profiles
func NewStaticRegistry(profiles ...BuiltInProfile) *StaticRegistry {
	return &StaticRegistry{profiles: profiles}
}

// Add registers a built-in profile
func (r *StaticRegistry) Add(profile BuiltInProfile) *StaticRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, profile)
	return r
}

// BuiltIns returns a copy of the registered profiles in registration order
func (r *StaticRegistry) BuiltIns() []BuiltInProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BuiltInProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// DefaultRegistry holds the built-in profiles used when no YAML file is configured
func DefaultRegistry() *StaticRegistry {
	return NewStaticRegistry(
		BuiltInProfile{Language: "go", Name: "Sonar way", IsDefault: true},
		BuiltInProfile{Language: "java", Name: "Sonar way", IsDefault: true},
		BuiltInProfile{Language: "java", Name: "Sonar way Recommended"},
		BuiltInProfile{Language: "js", Name: "Sonar way", IsDefault: true},
		BuiltInProfile{Language: "py", Name: "Sonar way", IsDefault: true},
	)
}

type registryFile struct {
	Profiles []BuiltInProfile `yaml:"profiles"`
}

// LoadRegistry reads built-in profiles from a YAML file:
//
//	profiles:
//	  - language: java
//	    name: Sonar way
//	    default: true
func LoadRegistry(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in profiles: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses the YAML document read by LoadRegistry
func ParseRegistry(data []byte) (*StaticRegistry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse built-in profiles: %w", err)
	}

	for i, p := range file.Profiles {
		if p.Language == "" || p.Name == "" {
			return nil, fmt.Errorf("built-in profile #%d: language and name are required", i+1)
		}
	}
	return NewStaticRegistry(file.Profiles...), nil
}
