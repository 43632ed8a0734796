// Package extractor recovers telemetry records from raw capture text.
//
// Two shapes are supported: log blocks, where every record is preceded by a bracketed
// timestamp and may be truncated or malformed, and JSON documents holding one record or
// an array of records. Records are produced lazily as an iter.Seq. Iterating twice over
// the same sequence decodes the text again and yields the same records.
package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
)

// ErrUndecodableDocument is returned when a JSON document cannot be decoded at all.
var ErrUndecodableDocument = errors.New("could not decode JSON document")

var errNotAnObject = errors.New("JSON value is not an object")

// Record is one decoded payload. Numbers are kept as json.Number.
type Record map[string]any

// Shape is the layout of a capture file.
type Shape int

const (
	// LogBlocks is text made of timestamp anchored blocks, each carrying one JSON payload.
	LogBlocks Shape = iota
	// Document is a single JSON value, either one record or an array of records.
	Document
)

func (s Shape) String() string {
	if s == Document {
		return "json-document"
	}
	return "log-blocks"
}

// ShapeFor picks the shape from the file extension.
func ShapeFor(path string) Shape {
	if strings.EqualFold(filepath.Ext(path), constants.DocumentExt) {
		return Document
	}
	return LogBlocks
}

// Extract returns the records held in text according to shape.
// Only the document shape can fail as a whole.
func Extract(text string, shape Shape, log *slog.Logger) (iter.Seq[Record], error) {
	if shape == Document {
		return FromDocument(text, log)
	}
	return FromLogBlocks(text, log), nil
}

// Decode strictly decodes one JSON object. Trailing data other than white space is an error.
func Decode(fragment string) (Record, error) {
	v, err := decodeValue(fragment)
	if err != nil {
		return nil, err
	}
	rec, ok := asRecord(v)
	if !ok {
		return nil, errNotAnObject
	}
	return rec, nil
}

// FromDocument decodes text as a single JSON value.
// An array gives one record per object element, any other object is the only record.
// Elements that are not objects are skipped with a warning.
func FromDocument(text string, log *slog.Logger) (iter.Seq[Record], error) {
	if log == nil {
		log = slog.Default()
	}

	v, err := decodeValue(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableDocument, err)
	}

	return func(yield func(Record) bool) {
		elems, isList := v.([]any)
		if !isList {
			elems = []any{v}
		}

		for i, e := range elems {
			rec, ok := asRecord(e)
			if !ok {
				log.Warn("Skipping JSON document element that is not an object", "index", i)
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}, nil
}

func decodeValue(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return v, nil
}

func asRecord(v any) (Record, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Record(m), true
}
