package loaders

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type layoutElement struct {
	Usage      string `toml:"usage"`
	UsageIndex uint32 `toml:"usage_index"`
	Components uint32 `toml:"components"`
	Offset     uint32 `toml:"offset"`
}

// buildLayout converts the file elements and resolves the stride. A zero
// stride means tightly packed.
func buildLayout(elements []layoutElement, stride uint32) (metadata.VertexLayout, uint32, error) {
	layout := metadata.VertexLayout{Elements: make([]metadata.VertexElement, 0, len(elements))}
	for _, e := range elements {
		usage, err := metadata.ParseVertexElementUsage(e.Usage)
		if err != nil {
			return layout, 0, err
		}
		layout.Elements = append(layout.Elements, metadata.VertexElement{
			Usage:      usage,
			UsageIndex: e.UsageIndex,
			Components: e.Components,
			Offset:     e.Offset,
		})
	}
	if stride == 0 {
		stride = layout.MinStride()
	}
	if stride%4 != 0 {
		return layout, 0, fmt.Errorf("stride %d is not a multiple of 4", stride)
	}
	if err := layout.Validate(stride); err != nil {
		return layout, 0, err
	}
	return layout, stride, nil
}

// decodeFile strictly decodes a TOML asset into doc.
func decodeFile(path string, doc interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidAsset, path, err)
	}
	return nil
}

func invalid(path, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", core.ErrInvalidAsset, path, fmt.Sprintf(format, args...))
}
