package regression

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"stdbench/internal/config"
	"stdbench/internal/run"
)

// CompressedSuffix marks zstd-compressed baseline artifacts.
const CompressedSuffix = ".zst"

// BaselineName is the file name an artifact is saved and compared under
// inside a baseline directory.
func BaselineName(artifact string) string {
	return filepath.Base(artifact)
}

// CheckBaselineNames fails when artifacts of different runs would share a
// baseline file, which happens when output templates in different
// directories end with the same name.
func CheckBaselineNames(runs []*config.Run) error {
	owners := make(map[string]string)
	for _, r := range runs {
		for _, c := range run.Sweep(r) {
			for _, kind := range run.ArtifactKinds(r.Kind) {
				src := run.ArtifactPath(r.Output, c, kind)
				name := BaselineName(src)
				if prev, ok := owners[name]; ok && prev != src {
					return fmt.Errorf("baseline name collision: %s and %s are both saved as %s", prev, src, name)
				}
				owners[name] = src
			}
		}
	}
	return nil
}

// SaveBaseline copies every artifact of r's sweep into dir under its base
// name, zstd-compressed when compress is set, and returns the written paths.
func SaveBaseline(r *config.Run, dir string, compress bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create baseline directory: %w", err)
	}

	var enc *zstd.Encoder
	if compress {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer enc.Close()
	}

	var written []string
	for _, c := range run.Sweep(r) {
		for _, kind := range run.ArtifactKinds(r.Kind) {
			src := run.ArtifactPath(r.Output, c, kind)
			data, err := os.ReadFile(src)
			if err != nil {
				return written, fmt.Errorf("failed to read artifact: %w", err)
			}

			dst := filepath.Join(dir, BaselineName(src))
			if enc != nil {
				data = enc.EncodeAll(data, nil)
				dst += CompressedSuffix
			}
			if err := os.WriteFile(dst, data, 0o644); err != nil {
				return written, fmt.Errorf("failed to write baseline: %w", err)
			}
			written = append(written, dst)
		}
	}
	return written, nil
}

// readArtifact reads path, falling back to its compressed form.
func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	compressed, zerr := os.ReadFile(path + CompressedSuffix)
	if zerr != nil {
		if errors.Is(zerr, fs.ErrNotExist) {
			return nil, err
		}
		return nil, zerr
	}
	dec, zerr := zstd.NewReader(nil)
	if zerr != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", zerr)
	}
	defer dec.Close()
	data, zerr = dec.DecodeAll(compressed, nil)
	if zerr != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path+CompressedSuffix, zerr)
	}
	return data, nil
}
