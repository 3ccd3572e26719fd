package file

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/utils"
)

// The on-disk envelope wraps the payload in a sentinel prefix/suffix that
// makes the file inert if it is ever served or executed as PHP by a
// misconfigured host. This is an obfuscation measure inherited from the
// flat-file format, not a security boundary.
const (
	sentinelPrefix = "<?php /* "
	sentinelSuffix = " */ ?>"
)

// encodeEnvelope serializes v as JSON, raw-deflates it and wraps the
// base64 payload in the sentinel markers.
func encodeEnvelope(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := fw.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush deflate writer: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(sentinelPrefix)
	out.WriteString(base64.StdEncoding.EncodeToString(compressed.Bytes()))
	out.WriteString(sentinelSuffix)
	return out.Bytes(), nil
}

// decodeEnvelope strips the sentinel markers, inflates the payload and
// unmarshals it into v.
func decodeEnvelope(data []byte, v any) error {
	if !bytes.HasPrefix(data, []byte(sentinelPrefix)) || !bytes.HasSuffix(data, []byte(sentinelSuffix)) {
		return fmt.Errorf("missing sentinel markers")
	}
	encoded := data[len(sentinelPrefix) : len(data)-len(sentinelSuffix)]

	compressed, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer utils.Close(fr)

	payload, err := io.ReadAll(fr)
	if err != nil {
		return fmt.Errorf("failed to inflate payload: %w", err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// loadEnvelope reads and decodes path into v. A missing file is not an
// error: the store starts empty.
func loadEnvelope(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &domain.PersistenceError{Op: "read", Path: path, Err: err}
	}
	if err := decodeEnvelope(data, v); err != nil {
		return false, &domain.PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return true, nil
}

// saveEnvelope encodes v and writes it to path atomically: the payload goes
// to a temp file in the same directory, then replaces path via rename. A
// crash mid-write leaves the previous file intact.
func saveEnvelope(path string, v any) error {
	data, err := encodeEnvelope(v)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
