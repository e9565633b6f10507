package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/typeid"
)

// record is the stored form of an element: the element as JSON without its
// bitmap, and the bitmap as PNG bytes.
type record struct {
	ID      string
	SortKey string
	Doc     []byte
	Bitmap  []byte
}

func encodeElement(el document.Element) (record, error) {
	rec := record{ID: el.ID, SortKey: typeid.Suffix(el.ID)}
	if el.Bitmap != nil {
		png, err := el.Bitmap.EncodePNG()
		if err != nil {
			return record{}, fmt.Errorf("encode bitmap %s: %w", el.ID, err)
		}
		rec.Bitmap = png
	}
	el.Bitmap = nil
	el.Selected = false
	doc, err := json.Marshal(el)
	if err != nil {
		return record{}, fmt.Errorf("encode element %s: %w", el.ID, err)
	}
	rec.Doc = doc
	return rec, nil
}

func decodeElement(doc, bitmap []byte) (document.Element, error) {
	var el document.Element
	if err := json.Unmarshal(doc, &el); err != nil {
		return document.Element{}, fmt.Errorf("decode element: %w", err)
	}
	if len(bitmap) > 0 {
		bmp, err := document.DecodeBitmap(bitmap)
		if err != nil {
			return document.Element{}, fmt.Errorf("decode bitmap %s: %w", el.ID, err)
		}
		el.Bitmap = bmp
	}
	return el, nil
}

func sortRecords(recs []record) {
	slices.SortFunc(recs, func(a, b record) int {
		if c := cmp.Compare(a.SortKey, b.SortKey); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
