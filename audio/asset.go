package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/validation"
)

// CanonicalExtension is the only extension the recognizer accepts without conversion.
const CanonicalExtension = ".wav"

// AllowedExtensions lists the upload formats the service accepts.
var AllowedExtensions = []string{".mp3", ".wav", ".ogg", ".webm", ".mp4", ".m4a", ".aac", ".flac"}

// Asset is an uploaded audio file on local disk.
type Asset struct {
	// Path is where the file is stored.
	Path string
	// OriginalName is the client-supplied file name.
	OriginalName string
	// Size is the file size in bytes.
	Size int64
	// Extension is the lower-cased extension including the dot.
	Extension string
}

// NewAsset builds an Asset for path. The extension is taken from the
// original name when one is given, otherwise from path.
func NewAsset(path, originalName string, size int64) Asset {
	name := originalName
	if name == "" {
		name = path
	}
	return Asset{
		Path:         path,
		OriginalName: originalName,
		Size:         size,
		Extension:    strings.ToLower(filepath.Ext(name)),
	}
}

// AssetFromFile stats path and builds an Asset from it.
func AssetFromFile(path, originalName string) (Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Asset{}, errors.NotFound("audio file", filepath.Base(path)).WithCause(err)
		}
		return Asset{}, errors.Internal(err)
	}
	return NewAsset(path, originalName, info.Size()), nil
}

// IsCanonical reports whether the asset can be handed to the recognizer as is.
func (a Asset) IsCanonical() bool {
	return a.Extension == CanonicalExtension
}

// Validate checks the extension allow-list and that the file is not empty.
func (a Asset) Validate() error {
	return validation.New().
		Required("audioFile", a.Path).
		Custom(isAllowed(a.Extension), "audioFile",
			"must have one of the extensions: "+strings.Join(AllowedExtensions, ", ")).
		Positive("audioFile", a.Size).
		Validate()
}

func isAllowed(ext string) bool {
	for _, e := range AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
