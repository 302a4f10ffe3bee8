package keyframe

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Version tags keyframe files written by Save.
const Version = "keyframes.v1"

type fileKey struct {
	Position  []float64 `yaml:"position,flow"`
	RotationY float64   `yaml:"rotation_y"`
	Move      Timing    `yaml:"move"`
	Turn      Timing    `yaml:"turn"`
}

type file struct {
	Version string               `yaml:"version"`
	Targets map[string][]fileKey `yaml:"targets"`
}

// Decode parses a YAML keyframe document and validates it.
func Decode(b []byte) (Set, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Set{}, err
	}
	if f.Version != "" && f.Version != Version {
		return Set{}, fmt.Errorf("unsupported keyframe version %q", f.Version)
	}
	var s Set
	for name, keys := range f.Targets {
		t, err := ParseTarget(name)
		if err != nil {
			return Set{}, err
		}
		tab := make(Table, len(keys))
		for i, k := range keys {
			if len(k.Position) != 3 {
				return Set{}, fmt.Errorf("%s slide %d: position needs 3 components, got %d", t, i, len(k.Position))
			}
			tab[i] = Keyframe{
				Position:  mgl64.Vec3{k.Position[0], k.Position[1], k.Position[2]},
				RotationY: k.RotationY,
				Move:      k.Move,
				Turn:      k.Turn,
			}
		}
		s[t] = tab
	}
	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

// Encode renders s as a YAML keyframe document.
func Encode(s Set) ([]byte, error) {
	f := file{Version: Version, Targets: map[string][]fileKey{}}
	for _, t := range Targets() {
		keys := make([]fileKey, len(s[t]))
		for i, k := range s[t] {
			keys[i] = fileKey{
				Position:  []float64{k.Position.X(), k.Position.Y(), k.Position.Z()},
				RotationY: k.RotationY,
				Move:      k.Move,
				Turn:      k.Turn,
			}
		}
		f.Targets[t.String()] = keys
	}
	return yaml.Marshal(&f)
}

func Load(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Set{}, err
	}
	return Decode(b)
}

func Save(path string, s Set) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
