package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

const (
	vertexBinding   uint32 = 0
	instanceBinding uint32 = 1
)

/**
 * @brief Vertex input description for an instanced draw: binding 0 steps
 * per vertex, binding 1 per instance. Locations are assigned in element
 * order, vertex elements first.
 */
type VertexInputState struct {
	Bindings   []vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
}

// Key identifies the state, so pipelines can be cached per input layout.
func (s *VertexInputState) Key() string {
	key := ""
	for _, b := range s.Bindings {
		key += fmt.Sprintf("b%d:%d:%d;", b.Binding, b.Stride, b.InputRate)
	}
	for _, a := range s.Attributes {
		key += fmt.Sprintf("a%d:%d:%d:%d;", a.Location, a.Binding, a.Format, a.Offset)
	}
	return key
}

func elementFormat(components uint32) (vk.Format, error) {
	switch components {
	case 1:
		return vk.FormatR32Sfloat, nil
	case 2:
		return vk.FormatR32g32Sfloat, nil
	case 3:
		return vk.FormatR32g32b32Sfloat, nil
	case 4:
		return vk.FormatR32g32b32a32Sfloat, nil
	default:
		return vk.FormatUndefined, fmt.Errorf("unsupported component count %d", components)
	}
}

// InstancedVertexInput converts the geometry and instance layouts of a draw
// into Vulkan binding and attribute descriptions.
func InstancedVertexInput(vertexLayout *metadata.VertexLayout, vertexStride uint32, instanceLayout *metadata.VertexLayout, instanceStride uint32) (*VertexInputState, error) {
	if vertexLayout == nil || instanceLayout == nil {
		return nil, fmt.Errorf("instanced draw requires a vertex and an instance layout")
	}
	state := &VertexInputState{
		Bindings: []vk.VertexInputBindingDescription{
			{Binding: vertexBinding, Stride: vertexStride, InputRate: vk.VertexInputRateVertex},
			{Binding: instanceBinding, Stride: instanceStride, InputRate: vk.VertexInputRateInstance},
		},
	}

	location := uint32(0)
	add := func(binding uint32, layout *metadata.VertexLayout) error {
		for _, e := range layout.Elements {
			format, err := elementFormat(e.Components)
			if err != nil {
				return fmt.Errorf("%s%d: %w", e.Usage, e.UsageIndex, err)
			}
			state.Attributes = append(state.Attributes, vk.VertexInputAttributeDescription{
				Location: location,
				Binding:  binding,
				Format:   format,
				Offset:   e.Offset,
			})
			location++
		}
		return nil
	}
	if err := add(vertexBinding, vertexLayout); err != nil {
		return nil, err
	}
	if err := add(instanceBinding, instanceLayout); err != nil {
		return nil, err
	}
	return state, nil
}
