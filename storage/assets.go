package storage

import (
	"path/filepath"
	"strings"
)

// Slug normalizes a camera display name into the fixed filename key used for
// its local assets: lower-cased with spaces replaced by underscores.
func Slug(cameraName string) string {
	return strings.ReplaceAll(strings.ToLower(cameraName), " ", "_")
}

// VideoFilename returns the fixed filename of a camera's latest recording.
func VideoFilename(cameraName string) string {
	return Slug(cameraName) + "_latest.mp4"
}

// StillFilename returns the fixed filename of a camera's latest still frame.
func StillFilename(cameraName string) string {
	return Slug(cameraName) + "_latest.jpg"
}

// AnimatedFilename returns the fixed filename of a camera's latest animated
// preview.
func AnimatedFilename(cameraName string) string {
	return Slug(cameraName) + "_latest.gif"
}

// VideoPath returns the full path of a camera's latest recording under dir.
func VideoPath(dir, cameraName string) string {
	return filepath.Join(dir, VideoFilename(cameraName))
}

// StillPath returns the full path of a camera's latest still frame under dir.
func StillPath(dir, cameraName string) string {
	return filepath.Join(dir, StillFilename(cameraName))
}

// AnimatedPath returns the full path of a camera's latest animated preview
// under dir.
func AnimatedPath(dir, cameraName string) string {
	return filepath.Join(dir, AnimatedFilename(cameraName))
}
