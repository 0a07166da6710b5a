package glb

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadJSON is returned when the JSON chunk cannot be parsed.
var ErrBadJSON = errors.New("glb: invalid JSON chunk")

// Document is the parsed glTF document graph.
//
// Only the records the rewrite mutates (images, buffer views, buffers)
// are fully modeled. Materials and textures are decoded read-only for
// classification. Every other top-level field is retained as raw JSON
// and emitted unchanged, so documents round-trip without loss.
type Document struct {
	Materials   []Material
	Textures    []Texture
	Images      []Image
	BufferViews []BufferView
	Buffers     []Buffer

	rest map[string]json.RawMessage
}

// Material holds the five texture channel slots of the glTF material
// model. Decoded for classification only; never re-serialized.
type Material struct {
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness"`
	NormalTexture        *TextureInfo          `json:"normalTexture"`
	OcclusionTexture     *TextureInfo          `json:"occlusionTexture"`
	EmissiveTexture      *TextureInfo          `json:"emissiveTexture"`
}

// PBRMetallicRoughness is the metallic-roughness parameter block of a
// material.
type PBRMetallicRoughness struct {
	BaseColorTexture         *TextureInfo `json:"baseColorTexture"`
	MetallicRoughnessTexture *TextureInfo `json:"metallicRoughnessTexture"`
}

// TextureInfo references a texture by index.
type TextureInfo struct {
	Index int `json:"index"`
}

// Texture binds an image source to a sampler. Decoded read-only.
type Texture struct {
	Sampler *int `json:"sampler"`
	Source  *int `json:"source"`
}

// Image is an image record. Exactly one of URI and BufferView is set.
type Image struct {
	URI        string          `json:"uri,omitempty"`
	MimeType   string          `json:"mimeType,omitempty"`
	BufferView *int            `json:"bufferView,omitempty"`
	Name       string          `json:"name,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// BufferView is a byte range within a buffer.
type BufferView struct {
	Buffer     int             `json:"buffer"`
	ByteOffset int             `json:"byteOffset,omitempty"`
	ByteLength int             `json:"byteLength"`
	ByteStride *int            `json:"byteStride,omitempty"`
	Target     *int            `json:"target,omitempty"`
	Name       string          `json:"name,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Buffer describes a binary blob. In a GLB the first buffer has no URI
// and refers to the embedded binary chunk.
type Buffer struct {
	URI        string          `json:"uri,omitempty"`
	ByteLength int             `json:"byteLength"`
	Name       string          `json:"name,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// ParseDocument decodes the JSON chunk into a Document.
func ParseDocument(data []byte) (*Document, error) {
	rest := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &rest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}

	d := &Document{rest: rest}
	for key, dst := range map[string]any{
		"materials":   &d.Materials,
		"textures":    &d.Textures,
		"images":      &d.Images,
		"bufferViews": &d.BufferViews,
		"buffers":     &d.Buffers,
	} {
		raw, ok := rest[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadJSON, key, err)
		}
	}
	return d, nil
}

// EncodeJSON serializes the document back to a JSON chunk.
//
// The mutated record lists replace their original entries; all other
// top-level fields are emitted exactly as parsed. Materials and
// textures are never mutated, so their original bytes are kept.
func (d *Document) EncodeJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.rest))
	for k, v := range d.rest {
		out[k] = v
	}
	set := func(key string, empty bool, src any) error {
		if empty {
			// Absent lists stay absent; glTF forbids empty arrays.
			return nil
		}
		raw, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("glb: encode %s: %w", key, err)
		}
		out[key] = raw
		return nil
	}
	if err := set("images", len(d.Images) == 0, d.Images); err != nil {
		return nil, err
	}
	if err := set("bufferViews", len(d.BufferViews) == 0, d.BufferViews); err != nil {
		return nil, err
	}
	if err := set("buffers", len(d.Buffers) == 0, d.Buffers); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// ViewBytes slices the byte range of view v out of blob.
func ViewBytes(blob []byte, v BufferView) ([]byte, error) {
	start := v.ByteOffset
	end := start + v.ByteLength
	if start < 0 || end > len(blob) {
		return nil, fmt.Errorf("%w: view [%d, %d) outside %d byte blob", ErrTruncated, start, end, len(blob))
	}
	return blob[start:end], nil
}
