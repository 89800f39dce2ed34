package loader

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/wippyai/opa-wasm-runtime/errors"
)

// Bundle is the content of an OPA compiled bundle.
type Bundle struct {
	// Policy is the compiled WASM module.
	Policy []byte
	// Data is the bundled data document, nil if the bundle has none.
	Data []byte
}

// ReadBundle loads a bundle from disk.
func ReadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open bundle", err)
	}
	defer f.Close()
	return LoadBundle(f)
}

// LoadBundle reads a bundle from r. The policy entry is required; paths
// are matched with or without a leading / or ./.
func LoadBundle(r io.Reader) (*Bundle, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Load("bundle is not gzip compressed", err)
	}
	defer gz.Close()

	bundle := &Bundle{}
	archive := tar.NewReader(gz)
	for {
		hdr, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Load("read tar archive", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		switch normalizePath(hdr.Name) {
		case "policy.wasm":
			bundle.Policy, err = io.ReadAll(archive)
		case "data.json":
			bundle.Data, err = io.ReadAll(archive)
		default:
			continue
		}
		if err != nil {
			return nil, errors.Load("read bundle entry "+hdr.Name, err)
		}
	}

	if bundle.Policy == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "bundle entry", "policy.wasm")
	}
	return bundle, nil
}

func normalizePath(name string) string {
	name = strings.TrimPrefix(name, "./")
	return strings.TrimPrefix(name, "/")
}
