// Package decomp implements the DecompressorRegistry component (spec
// §4.7): a capability-keyed map from method code to decoder.
//
// Grounded on archive/archiver.go's Archiver interface (capability
// registration: an archiver only claims the formats it actually handles),
// generalized here from "one archiver per container format" to "one
// decoder per compression method code".
package decomp

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/nguyengg/zipkit/internal/model"
	"github.com/ulikunitz/xz/lzma"
)

// ErrUnsupportedMethod is wrapped into a *model.Error (KindUnsupportedMethod) by the driver.
var ErrUnsupportedMethod = errors.New("unsupported compression method")

// Factory builds a decoder that reads decompressed bytes from r. r is bounded to exactly the entry's
// compressed-size by the caller (internal/driver), so a Factory never needs to know where the entry ends.
type Factory func(r io.Reader, uncompressedSize uint64) (io.ReadCloser, error)

// Registry maps method codes to Factory, with Shrink/Reduce/Implode registered as recognised-but-unsupported so
// callers get a named ErrUnsupportedMethod rather than a generic "key not found".
type Registry struct {
	factories map[model.Method]Factory
}

// NewRegistry returns a Registry with Stored, Deflate, Deflate64, BZip2, and LZMA wired, and
// Shrink/Reduce/Implode registered as explicitly unsupported (spec §4.7).
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[model.Method]Factory)}

	r.factories[model.MethodStored] = storedFactory
	r.factories[model.MethodDeflate] = deflateFactory
	r.factories[model.MethodDeflate64] = deflate64Factory
	r.factories[model.MethodBZip2] = bzip2Factory
	r.factories[model.MethodLZMA] = lzmaFactory

	for _, m := range []model.Method{model.MethodShrink, model.MethodReduce1, model.MethodReduce2, model.MethodReduce3, model.MethodReduce4, model.MethodImplode} {
		r.factories[m] = nil // recognised, but no Factory registered.
	}

	return r
}

// Open returns a decoder for method, bounding r's consumption to the entry's compressed/uncompressed sizes.
func (r *Registry) Open(method model.Method, src io.Reader, compressedSize, uncompressedSize uint64) (io.ReadCloser, error) {
	factory, known := r.factories[method]
	if !known {
		return nil, fmt.Errorf("%w: method code %d (%s) is not recognised", ErrUnsupportedMethod, method, method)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: method %s is recognised but not implemented", ErrUnsupportedMethod, method)
	}

	bounded := io.LimitReader(src, int64(compressedSize))
	return factory(bounded, uncompressedSize)
}

func storedFactory(r io.Reader, uncompressedSize uint64) (io.ReadCloser, error) {
	return io.NopCloser(io.LimitReader(r, int64(uncompressedSize))), nil
}

func deflateFactory(r io.Reader, _ uint64) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

func bzip2Factory(r io.Reader, _ uint64) (io.ReadCloser, error) {
	rc, err := bzip2.NewReader(r, nil)
	if err != nil {
		return nil, fmt.Errorf("open bzip2 stream error: %w", err)
	}
	return rc, nil
}

func lzmaFactory(r io.Reader, _ uint64) (io.ReadCloser, error) {
	lr, err := lzma.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("open lzma stream error: %w", err)
	}
	return io.NopCloser(lr), nil
}
