package metadata

import "fmt"

// VertexElementUsage names what a vertex element feeds in the shader.
type VertexElementUsage int

const (
	VertexUsagePosition VertexElementUsage = iota
	VertexUsageColor
	VertexUsageNormal
	VertexUsageTangent
	VertexUsageBinormal
	VertexUsageTexCoord
	VertexUsageBlendWeight
	VertexUsageBlendIndices
)

var vertexUsageNames = []string{"position", "color", "normal", "tangent", "binormal", "texcoord", "blendweight", "blendindices"}

func (u VertexElementUsage) String() string {
	if int(u) < len(vertexUsageNames) && u >= 0 {
		return vertexUsageNames[u]
	}
	return fmt.Sprintf("usage(%d)", int(u))
}

func ParseVertexElementUsage(name string) (VertexElementUsage, error) {
	for i, n := range vertexUsageNames {
		if n == name {
			return VertexElementUsage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vertex element usage %q", name)
}

/**
 * @brief A single float vector inside an interleaved vertex.
 */
type VertexElement struct {
	Usage      VertexElementUsage
	UsageIndex uint32
	/** @brief Number of float32 components, 1 to 4. */
	Components uint32
	/** @brief Byte offset inside the vertex. */
	Offset uint32
}

// Size returns the element size in bytes.
func (e VertexElement) Size() uint32 {
	return e.Components * 4
}

/**
 * @brief Describes the layout of an interleaved vertex or instance buffer.
 */
type VertexLayout struct {
	Elements []VertexElement
}

// MinStride returns the smallest stride able to hold every element.
func (l *VertexLayout) MinStride() uint32 {
	if l == nil {
		return 0
	}
	var stride uint32
	for _, e := range l.Elements {
		if end := e.Offset + e.Size(); end > stride {
			stride = end
		}
	}
	return stride
}

// Find returns the element with the given usage and index.
func (l *VertexLayout) Find(usage VertexElementUsage, usageIndex uint32) (VertexElement, bool) {
	if l == nil {
		return VertexElement{}, false
	}
	for _, e := range l.Elements {
		if e.Usage == usage && e.UsageIndex == usageIndex {
			return e, true
		}
	}
	return VertexElement{}, false
}

// Validate checks components and that every element fits in stride bytes.
func (l *VertexLayout) Validate(stride uint32) error {
	if l == nil || len(l.Elements) == 0 {
		return fmt.Errorf("vertex layout has no elements")
	}
	for _, e := range l.Elements {
		if e.Components < 1 || e.Components > 4 {
			return fmt.Errorf("element %s%d has %d components, want 1 to 4", e.Usage, e.UsageIndex, e.Components)
		}
		if e.Offset%4 != 0 {
			return fmt.Errorf("element %s%d offset %d is not 4 byte aligned", e.Usage, e.UsageIndex, e.Offset)
		}
		if e.Offset+e.Size() > stride {
			return fmt.Errorf("element %s%d ends at %d past stride %d", e.Usage, e.UsageIndex, e.Offset+e.Size(), stride)
		}
	}
	return nil
}
