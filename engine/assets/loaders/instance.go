package loaders

import (
	"unsafe"

	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/resources"
)

type instanceFile struct {
	Streams []instanceStream `toml:"streams"`
}

type instanceStream struct {
	Name   string          `toml:"name"`
	Count  uint32          `toml:"count"`
	Stride uint32          `toml:"stride"`
	Layout []layoutElement `toml:"layout"`
	Data   []float32       `toml:"data"`
}

// InstanceDataLoader reads .inst files.
type InstanceDataLoader struct{}

func (il *InstanceDataLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	var doc instanceFile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Streams) == 0 {
		return nil, invalid(path, "no streams")
	}

	data := &resources.InstanceData{}
	var size uint64
	for _, s := range doc.Streams {
		layout, stride, err := buildLayout(s.Layout, s.Stride)
		if err != nil {
			return nil, invalid(path, "stream %q: %v", s.Name, err)
		}
		if uint64(len(s.Data))*4 != uint64(s.Count)*uint64(stride) {
			return nil, invalid(path, "stream %q: %d floats do not hold %d instances of %d bytes", s.Name, len(s.Data), s.Count, stride)
		}
		size += uint64(len(s.Data)) * 4
		data.Streams = append(data.Streams, &resources.InstanceStreamData{
			Name:   s.Name,
			Layout: layout,
			Stride: stride,
			Count:  s.Count,
			Data:   s.Data,
		})
	}

	return &metadata.Resource{
		Name:     path,
		FullPath: path,
		Type:     metadata.ResourceTypeInstanceData,
		DataSize: size + uint64(unsafe.Sizeof(resources.InstanceData{})),
		Data:     data,
	}, nil
}

func (il *InstanceDataLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
