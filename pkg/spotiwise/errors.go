package spotiwise

import "errors"

var (
	// ErrMissingID is returned when a payload lacks a required identity field.
	ErrMissingID = errors.New("spotiwise: id is required")

	// ErrNoFetcher is returned by LoadTracks when no Fetcher is available.
	ErrNoFetcher = errors.New("spotiwise: a fetcher is required to load tracks")

	// ErrUnknownKind is returned by Decode for an unrecognised "type" value.
	ErrUnknownKind = errors.New("spotiwise: unknown object type")
)
