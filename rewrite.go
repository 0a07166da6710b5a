package squish

import (
	"github.com/meigma/squish/glb"
)

// rewrite reassembles the container around the encoded images.
//
// Buffer views are walked in their original order: views backing a
// processed image are substituted with the encoded bytes, every other
// view is copied verbatim, and each view's offset is rewritten to its
// position in the new blob. Processed images that had an external
// source gain a brand-new view appended after the originals, since they
// had none to substitute into. The buffer list collapses to the single
// embedded buffer and every processed image is stamped with the KTX2
// MIME type.
//
// The document is consumed: its images, buffer views, and buffers are
// mutated in place before serialization.
func rewrite(doc *glb.Document, blob []byte, images map[int][]byte) ([]byte, error) {
	// Which image, if any, does each buffer view back?
	viewImage := make(map[int]int, len(doc.Images))
	for i, img := range doc.Images {
		if img.BufferView != nil {
			viewImage[*img.BufferView] = i
		}
	}

	newBlob := make([]byte, 0, len(blob))
	newViews := make([]glb.BufferView, 0, len(doc.BufferViews))
	for i, view := range doc.BufferViews {
		var data []byte
		if imgIndex, ok := viewImage[i]; ok {
			data = images[imgIndex]
		}
		if data == nil {
			var err error
			if data, err = glb.ViewBytes(blob, view); err != nil {
				return nil, err
			}
		}

		next := view
		next.Buffer = 0
		next.ByteOffset = len(newBlob)
		next.ByteLength = len(data)
		newBlob = append(newBlob, data...)
		newViews = append(newViews, next)
	}

	for i := range doc.Images {
		img := &doc.Images[i]
		data, processed := images[i]
		if !processed {
			continue
		}
		img.MimeType = MimeTypeKTX2
		if img.BufferView != nil {
			continue // Substituted in place above.
		}

		// External source: append a new view holding the encoded bytes
		// and point the image at it. URI and view are mutually
		// exclusive, so the URI is cleared.
		viewIndex := len(newViews)
		newViews = append(newViews, glb.BufferView{
			Buffer:     0,
			ByteOffset: len(newBlob),
			ByteLength: len(data),
		})
		newBlob = append(newBlob, data...)
		img.URI = ""
		img.BufferView = &viewIndex
	}

	doc.BufferViews = newViews
	doc.Buffers = []glb.Buffer{{ByteLength: len(newBlob)}}

	jsonBytes, err := doc.EncodeJSON()
	if err != nil {
		return nil, err
	}

	container := &glb.Container{JSON: jsonBytes, BIN: newBlob}
	return container.Encode()
}
