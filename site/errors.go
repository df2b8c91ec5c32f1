package site

import "errors"

var (
	// ErrUnmarkedOutput signals that the output folder holds files the tool
	// did not generate and must not be replaced.
	ErrUnmarkedOutput = errors.New("output folder is not a generated output folder")
	// ErrNoSource is returned when the source folder is missing or empty.
	ErrNoSource = errors.New("source folder has no files")
)
