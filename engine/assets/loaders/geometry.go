package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/resources"
)

type geometryFile struct {
	Name   string         `toml:"name"`
	Meshes []geometryMesh `toml:"meshes"`
}

type geometryMesh struct {
	Name     string          `toml:"name"`
	Stride   uint32          `toml:"stride"`
	Layout   []layoutElement `toml:"layout"`
	Vertices []float32       `toml:"vertices"`
	Indices  []uint32        `toml:"indices"`
	Areas    []geometryArea  `toml:"areas"`
}

type geometryArea struct {
	Name       string `toml:"name"`
	FirstIndex uint32 `toml:"first_index"`
	IndexCount uint32 `toml:"index_count"`
}

// GeometryLoader reads .geom files.
type GeometryLoader struct{}

func (gl *GeometryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	var doc geometryFile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Meshes) == 0 {
		return nil, invalid(path, "no meshes")
	}
	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	data := &resources.GeometryData{Name: name}
	var size uint64
	for i, m := range doc.Meshes {
		sm, err := buildSubMesh(path, i, m)
		if err != nil {
			return nil, err
		}
		size += uint64(len(sm.Vertices))*4 + uint64(len(sm.Indices))*4
		data.Meshes = append(data.Meshes, sm)
	}

	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		Type:     metadata.ResourceTypeGeometry,
		DataSize: size + uint64(unsafe.Sizeof(resources.GeometryData{})),
		Data:     data,
	}, nil
}

func (gl *GeometryLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

func buildSubMesh(path string, index int, m geometryMesh) (*resources.SubMeshData, error) {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", index)
	}
	layout, stride, err := buildLayout(m.Layout, m.Stride)
	if err != nil {
		return nil, invalid(path, "mesh %q: %v", name, err)
	}
	if len(m.Vertices) == 0 || (len(m.Vertices)*4)%int(stride) != 0 {
		return nil, invalid(path, "mesh %q: %d floats is not a whole number of %d byte vertices", name, len(m.Vertices), stride)
	}
	sm := &resources.SubMeshData{
		Name:     name,
		Layout:   layout,
		Stride:   stride,
		Vertices: m.Vertices,
		Indices:  m.Indices,
	}
	vertexCount := sm.VertexCount()
	for _, idx := range m.Indices {
		if idx >= vertexCount {
			return nil, invalid(path, "mesh %q: index %d out of %d vertices", name, idx, vertexCount)
		}
	}

	indexCount := uint32(len(m.Indices))
	for _, a := range m.Areas {
		if a.FirstIndex+a.IndexCount > indexCount {
			return nil, invalid(path, "mesh %q: area %q ends past %d indices", name, a.Name, indexCount)
		}
		sm.Areas = append(sm.Areas, resources.GeometryArea{Name: a.Name, FirstIndex: a.FirstIndex, IndexCount: a.IndexCount})
	}
	if len(sm.Areas) == 0 {
		sm.Areas = []resources.GeometryArea{{Name: name, IndexCount: indexCount}}
	}

	if pos, ok := layout.Find(metadata.VertexUsagePosition, 0); ok && pos.Components >= 3 {
		if b, ok := math.BoundsFromPositions(m.Vertices, int(stride/4), int(pos.Offset/4)); ok {
			sm.Bounds = b
		}
	}
	return sm, nil
}
