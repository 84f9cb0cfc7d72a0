package codec

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Factory creates a decoder for a MIME type.
type Factory func(mime string) (Decoder, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register installs factory for mime, replacing any previous backend.
func Register(mime string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	registry.factories[mime] = factory
}

// registerDefault installs factory unless a backend is already present.
func registerDefault(mime string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.factories[mime]; !ok {
		registry.factories[mime] = factory
	}
}

// NewDecoderByType returns a decoder for mime. It fails with an
// *UnsupportedCodecError when no backend is registered.
func NewDecoderByType(mime string) (Decoder, error) {
	registry.RLock()
	factory, ok := registry.factories[mime]
	registry.RUnlock()

	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":   "NewDecoderByType",
			"mime":       mime,
			"registered": RegisteredTypes(),
		}).Error("No decoder registered for MIME type")
		return nil, &UnsupportedCodecError{MIME: mime}
	}

	dec, err := factory(mime)
	if err != nil {
		return nil, newError("create", mime, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDecoderByType",
		"mime":     mime,
		"decoder":  dec.Name(),
	}).Info("Decoder created")
	return dec, nil
}

// RegisteredTypes lists the MIME types with a backend, sorted.
func RegisteredTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	types := make([]string, 0, len(registry.factories))
	for mime := range registry.factories {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}
