package loader

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

// Decoder turns an encoded audio stream into a Clip. The reader carries the
// complete file; decoders that need random access may seek freely.
type Decoder interface {
	Decode(r io.ReadSeeker) (*Clip, error)
}

// Registry maps format keys (file extensions without the dot, lowercased) to
// decoders. Each loader owns its registry; sessions never share mutable
// decoder state through package globals.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// NewDefaultRegistry creates a registry with the wav, mp3, and ogg decoders
// installed.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", WAVDecoder{})
	r.Register("mp3", MP3Decoder{})
	r.Register("ogg", OggDecoder{})
	return r
}

// Register installs a decoder for a format key, replacing any previous one.
func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[strings.ToLower(format)] = d
}

// ForFile returns the decoder for a file name's extension.
func (r *Registry) ForFile(name string) (Decoder, error) {
	format := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))

	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[format]
	if !ok {
		return nil, fmt.Errorf("loader: no decoder for format %q", format)
	}
	return d, nil
}
