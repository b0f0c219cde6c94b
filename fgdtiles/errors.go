package fgdtiles

import (
	"errors"
	"fmt"

	"github.com/rubenv/fgdtiles/xyz"
)

var errMissingValue = errors.New("missing value")

// ClipError indicates the geometry library rejected a geometry, either while
// building it or while intersecting it with a tile envelope.
type ClipError struct {
	Tile *xyz.Tile
	Err  error
}

func (e *ClipError) Error() string {
	if e.Tile != nil {
		return fmt.Sprintf("clip failed for tile %s: %s", e.Tile, e.Err)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Err)
}

func (e *ClipError) Unwrap() error {
	return e.Err
}

// FieldError indicates a property value that could not be converted to the
// type its field table demands.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("bad value %q for %s: %s", e.Value, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// CoordinateError indicates a malformed coordinate payload.
type CoordinateError struct {
	Element string
	Reason  string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("bad coordinates in %s: %s", e.Element, e.Reason)
}

type EntryNameError struct {
	Name   string
	Reason string
}

func (e *EntryNameError) Error() string {
	return fmt.Sprintf("cannot parse entry name %q: %s", e.Name, e.Reason)
}

// UnknownTypeError is returned for documents whose type tag has no extractor.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no converter for type %s", e.Type)
}
