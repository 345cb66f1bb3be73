package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/mesh"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/systems"
)

type sceneFile struct {
	Effects []sceneEffect `toml:"effects"`
	Meshes  []sceneMesh   `toml:"meshes"`
}

type sceneEffect struct {
	Name       string               `toml:"name"`
	Shader     string               `toml:"shader"`
	Parameters map[string][]float32 `toml:"parameters"`
}

type sceneMesh struct {
	mesh.InstancedMeshConfig
	ObjectID uint32      `toml:"object_id"`
	Hidden   bool        `toml:"hidden"`
	Bounds   [][]float32 `toml:"bounds"`
	Areas    []sceneArea `toml:"areas"`
}

type sceneArea struct {
	Name    string `toml:"name"`
	Mode    string `toml:"mode"`
	Effect  string `toml:"effect"`
	SubMesh int    `toml:"sub_mesh"`
	Start   int    `toml:"start"`
	Count   int    `toml:"count"`
	Hidden  bool   `toml:"hidden"`
}

// Scene is a set of instanced meshes read from a TOML file, together with
// the effects their areas reference.
type Scene struct {
	Meshes  []*mesh.InstancedMesh
	objects []renderer.RenderObject
	effects []string
	sm      *systems.SystemManager
}

// LoadScene parses the scene at path, acquires its effects and initializes
// its meshes against the resource system. Geometry keeps loading in the
// background; meshes skip drawing until it is ready.
func LoadScene(path string, sm *systems.SystemManager) (*Scene, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file sceneFile
	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}

	s := &Scene{sm: sm}
	for _, e := range file.Effects {
		if _, err := sm.EffectSystem.Acquire(e.Name, e.Shader, e.Parameters); err != nil {
			s.Destroy()
			return nil, fmt.Errorf("scene %s: effect %s: %w", path, e.Name, err)
		}
		s.effects = append(s.effects, e.Name)
	}

	for i, m := range file.Meshes {
		im, err := s.buildMesh(m)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("scene %s: mesh %d: %w", path, i, err)
		}
		s.Meshes = append(s.Meshes, im)
		s.objects = append(s.objects, renderer.RenderObject{
			Source:        im,
			PerObjectData: &metadata.PerObjectData{ObjectID: m.ObjectID},
		})
	}
	core.LogInfo("scene %s: %d effects, %d meshes", path, len(s.effects), len(s.Meshes))
	return s, nil
}

func (s *Scene) buildMesh(m sceneMesh) (*mesh.InstancedMesh, error) {
	if m.GeometryResPath == "" || m.InstanceGeometryResPath == "" {
		return nil, fmt.Errorf("geometry and instances are required")
	}
	if m.InstanceStreamIndex < 0 {
		return nil, fmt.Errorf("negative stream index %d", m.InstanceStreamIndex)
	}
	im := mesh.NewInstancedMesh(s.sm.ResourceSystem, m.InstancedMeshConfig)
	im.Display = !m.Hidden
	if len(m.Bounds) == 2 && len(m.Bounds[0]) == 3 && len(m.Bounds[1]) == 3 {
		im.SetBounds(vec3(m.Bounds[0]), vec3(m.Bounds[1]))
	} else if len(m.Bounds) != 0 {
		return nil, fmt.Errorf("bounds must be two points of three components")
	}

	for _, a := range m.Areas {
		mode, ok := metadata.ParseRenderMode(a.Mode)
		if !ok || mode == metadata.RenderModeAny {
			return nil, fmt.Errorf("area %s: unknown render mode '%s'", a.Name, a.Mode)
		}
		effect := s.sm.EffectSystem.Get(a.Effect)
		if effect == nil {
			return nil, fmt.Errorf("area %s: unknown effect '%s'", a.Name, a.Effect)
		}
		area := metadata.NewMeshArea(a.Name, effect, a.SubMesh, a.Start, a.Count)
		area.Visible = !a.Hidden
		im.AddArea(mode, area)
	}
	im.Initialize()
	return im, nil
}

func vec3(v []float32) math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

// Objects returns the render list for the frame. Every mesh is submitted;
// the ones whose resources are not resident emit no draws.
func (s *Scene) Objects() []renderer.RenderObject {
	return s.objects
}

// Destroy releases every mesh and effect held by the scene.
func (s *Scene) Destroy() {
	if s == nil {
		return
	}
	for _, m := range s.Meshes {
		m.Destroy()
	}
	for _, name := range s.effects {
		s.sm.EffectSystem.Release(name)
	}
	s.Meshes, s.objects, s.effects = nil, nil, nil
}
