// Copyright (c) 2025 Neomantra Corp
// Reader/Writer compression helpers, zstd only.
//
// Adapted from Neomantra's Gist:
// https://gist.github.com/neomantra/691a6028cdf2ac3fc6ec97d00e8ea802

package feed

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// MakeCompressedWriter returns an io.Writer for filename ("-" means
// os.Stdout), plus a closer to defer. If filename ends in ".zst"/".zstd",
// or useZstd is true, the writer zstd-compresses its output.
func MakeCompressedWriter(filename string, useZstd bool) (io.Writer, func(), error) {
	var writer io.Writer
	var closer io.Closer
	fileCloser := func() {
		if closer != nil {
			closer.Close()
		}
	}
	if filename != "-" {
		file, err := os.Create(filename)
		if err != nil {
			return nil, nil, err
		}
		writer, closer = file, file
	} else {
		writer, closer = os.Stdout, nil
	}

	if useZstd || strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd") {
		zstdWriter, err := zstd.NewWriter(writer)
		if err != nil {
			fileCloser()
			return nil, nil, err
		}
		zstdCloser := func() {
			zstdWriter.Close()
			fileCloser()
		}
		return zstdWriter, zstdCloser, nil
	}
	return writer, fileCloser, nil
}

// MakeCompressedReader returns an io.Reader for filename ("-" means
// os.Stdin), plus a closer. If filename ends in ".zst"/".zstd", or
// useZstd is true, the reader zstd-decompresses its input.
func MakeCompressedReader(filename string, useZstd bool) (io.Reader, io.Closer, error) {
	var reader io.Reader
	var closer io.Closer

	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, nil, err
		}
		reader, closer = file, file
	} else {
		reader, closer = os.Stdin, nil
	}

	if useZstd || strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd") {
		zr, err := zstd.NewReader(reader)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, nil, err
		}
		reader = zr
	}
	return reader, closer, nil
}
