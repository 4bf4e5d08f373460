// Package ir carries decoded WebAssembly modules between transformations.
//
// A Module pairs the decoded section data with the binary image it was
// decoded from, so transformations can tell whether re-encoding the module
// reproduces its source byte for byte.
package ir

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/leb128"
	"github.com/pgavlin/warp/wast"
)

// Module is a decoded module plus its source image. The source image is nil
// for modules that were built in memory or assembled from text.
type Module struct {
	*wasm.Module

	source []byte
}

// New wraps a module built in memory.
func New(m *wasm.Module) *Module {
	return &Module{Module: m}
}

// Decode reads a module in either binary or text format, using the binary
// magic to decide.
func Decode(r io.Reader) (*Module, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(contents)
}

// DecodeBytes decodes contents as a binary module if it leads with the
// binary magic and as text otherwise.
func DecodeBytes(contents []byte) (*Module, error) {
	if len(contents) >= 4 && binary.LittleEndian.Uint32(contents) == wasm.Magic {
		m, err := wasm.DecodeModule(bytes.NewReader(contents))
		if err != nil {
			return nil, err
		}
		return &Module{Module: m, source: contents}, nil
	}

	syntax, err := wast.ParseModule(wast.NewScanner(bytes.NewReader(contents)))
	if err != nil {
		return nil, err
	}
	m, err := syntax.Decode()
	if err != nil {
		return nil, err
	}
	return &Module{Module: m}, nil
}

// DecodeFile loads the module at path.
func DecodeFile(path string) (*Module, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(contents)
}

// Source returns the binary image the module was decoded from, or nil if
// there is none.
func (m *Module) Source() []byte {
	return m.source
}

// Encode serializes the module to binary. A section still carrying its raw
// image is copied from it; a section whose image was discarded (see Touch)
// is re-marshaled from its live entries.
func (m *Module) Encode() ([]byte, error) {
	if len(m.Module.Sections) == 0 {
		m.Sync()
	}

	version := m.Version
	if version == 0 {
		version = wasm.Version
	}
	var header [8]byte
	binary.LittleEndian.PutUint32(header[:4], wasm.Magic)
	binary.LittleEndian.PutUint32(header[4:], version)

	var buf, payload bytes.Buffer
	buf.Write(header[:])
	for _, s := range m.Module.Sections {
		contents := s.GetRawSection().Bytes
		if contents == nil {
			payload.Reset()
			if err := s.WritePayload(&payload); err != nil {
				return nil, err
			}
			contents = payload.Bytes()
		}
		buf.WriteByte(byte(s.SectionID()))
		if _, err := leb128.WriteVarUint32(&buf, uint32(len(contents))); err != nil {
			return nil, err
		}
		buf.Write(contents)
	}
	return buf.Bytes(), nil
}

// WriteWast prints the module in text format.
func (m *Module) WriteWast(w io.Writer) error {
	return wast.WriteTo(w, m.Module)
}

// Reset swaps in a new decoded module and source image, preserving the
// wrapper for callers holding a reference to it.
func (m *Module) Reset(module *wasm.Module, source []byte) {
	m.Module = module
	m.source = source
}
