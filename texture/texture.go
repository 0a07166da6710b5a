// Package texture classifies glTF textures by their role in the
// material model and derives the encoding policy for each role.
package texture

import (
	"errors"
	"fmt"

	"github.com/meigma/squish/glb"
)

// ErrUnknownFormat is returned when a format string cannot be parsed.
var ErrUnknownFormat = errors.New("texture: unknown format")

// Format selects the target texture format.
type Format uint8

const (
	// FormatRgba8 stores uncompressed 8-bit RGBA texels.
	FormatRgba8 Format = iota

	// FormatASTC stores ASTC block-compressed texels.
	FormatASTC
)

// ParseFormat parses a CLI format selector.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "raw":
		return FormatRgba8, nil
	case "astc":
		return FormatASTC, nil
	default:
		return 0, fmt.Errorf("%w %q, expected 'raw' or 'astc'", ErrUnknownFormat, s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatRgba8:
		return "raw"
	case FormatASTC:
		return "astc"
	default:
		return "unknown"
	}
}

// Role is the material-channel classification of a texture.
type Role uint8

const (
	RoleBaseColor Role = iota
	RoleNormal
	RoleMetallicRoughnessOcclusion
	RoleEmissive
)

func (r Role) String() string {
	switch r {
	case RoleBaseColor:
		return "base color"
	case RoleNormal:
		return "normal"
	case RoleMetallicRoughnessOcclusion:
		return "metallic-roughness/occlusion"
	case RoleEmissive:
		return "emissive"
	default:
		return "unknown"
	}
}

// SRGB reports whether texels in this role carry sRGB-encoded color.
// Normal and metallic-roughness/occlusion data is linear.
func (r Role) SRGB() bool {
	return r == RoleBaseColor || r == RoleEmissive
}

// BlockSize returns the ASTC block footprint for this role. Color
// channels get the finer 6x6 blocks; data channels tolerate 4x4.
func (r Role) BlockSize() string {
	switch r {
	case RoleBaseColor, RoleEmissive:
		return "6x6"
	default:
		return "4x4"
	}
}

// Target is one unit of encoding work: an image index paired with the
// role of the texture that references it.
type Target struct {
	// Image is the index into the document's image list. Keying work by
	// image index rather than texture index deduplicates images shared
	// between textures.
	Image int

	// Role drives the encoder options for this image.
	Role Role
}

// Classify walks every material's five texture channel slots and
// returns one Target per distinct referenced image, in document
// enumeration order.
//
// The metallic-roughness and occlusion slots share a role because their
// channels are packed into one image. An image referenced from several
// slots is emitted once: the first classification wins and later visits
// are skipped, so each image is encoded at most once per run.
//
// Classify never mutates the document.
func Classify(doc *glb.Document) []Target {
	var targets []Target
	seen := make(map[int]bool)

	add := func(info *glb.TextureInfo, role Role) {
		if info == nil {
			return
		}
		if info.Index < 0 || info.Index >= len(doc.Textures) {
			return
		}
		src := doc.Textures[info.Index].Source
		if src == nil || *src < 0 || *src >= len(doc.Images) {
			return
		}
		if seen[*src] {
			return
		}
		seen[*src] = true
		targets = append(targets, Target{Image: *src, Role: role})
	}

	for _, material := range doc.Materials {
		if pbr := material.PBRMetallicRoughness; pbr != nil {
			add(pbr.BaseColorTexture, RoleBaseColor)
			add(pbr.MetallicRoughnessTexture, RoleMetallicRoughnessOcclusion)
		}
		add(material.NormalTexture, RoleNormal)
		add(material.EmissiveTexture, RoleEmissive)
		add(material.OcclusionTexture, RoleMetallicRoughnessOcclusion)
	}
	return targets
}
