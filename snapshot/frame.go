// Package snapshot implements component I: the two versioned flat-file
// snapshots of registry and governance-vote state (spec.md §4.I, §6).
// Grounded on the teacher's own hand-rolled little-endian binary convention
// (internal/wire, itself grounded on the teacher's wire/common.go) extended
// here to whole-file framing: magic, network id, version string, payload,
// checksum. Writes go to a temp file and are renamed into place, matching
// spec.md §5's "writes are atomic (write-temp-and-rename)".
package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	mnwire "github.com/minblock/qtipd/internal/wire"
)

// Magic values identify which snapshot a file holds (spec.md §4.I).
const (
	MagicInfinityNodeCache = "magicInfinityNodeCache"
	MagicInfinityRSV       = "magicInfinityRSV"
)

// FormatVersion is the compile-time version string written into every
// snapshot; a mismatch on load means "discard and rebuild from chain"
// (spec.md §4.I, §7 Fatal).
const FormatVersion = "qtipd-infinitynode-1"

// ErrVersionMismatch is returned by load when the file's version string
// does not match FormatVersion. Callers should treat this as "discard and
// rebuild", not as an I/O failure.
var ErrVersionMismatch = errors.New("snapshot: version mismatch")

// ErrChecksumMismatch is returned by load when the file's payload does not
// match its stored checksum (spec.md §6: "mismatched checksum → error").
var ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

func writeFrame(path, magic, networkID string, payload []byte) error {
	var buf bytes.Buffer
	if err := writeString(&buf, magic); err != nil {
		return err
	}
	if err := writeString(&buf, networkID); err != nil {
		return err
	}
	if err := writeString(&buf, FormatVersion); err != nil {
		return err
	}
	if err := writeBytes(&buf, payload); err != nil {
		return err
	}
	checksum := mnwire.Sha256D(payload)
	if _, err := buf.Write(checksum[:]); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "snapshot: creating temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "snapshot: writing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "snapshot: closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "snapshot: renaming into place")
	}
	return nil
}

// readFrame reads and validates path's magic, network id, version, and
// checksum, returning the payload on success.
func readFrame(path, wantMagic, wantNetworkID string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: opening file")
	}
	defer f.Close()

	r := f
	magic, err := readString(r)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: reading magic")
	}
	if magic != wantMagic {
		return nil, errors.Errorf("snapshot: magic %q, want %q", magic, wantMagic)
	}
	networkID, err := readString(r)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: reading network id")
	}
	if networkID != wantNetworkID {
		return nil, errors.Errorf("snapshot: network id %q, want %q", networkID, wantNetworkID)
	}
	version, err := readString(r)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: reading version")
	}
	if version != FormatVersion {
		return nil, ErrVersionMismatch
	}
	payload, err := readBytes(r)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: reading payload")
	}
	var wantChecksum [32]byte
	if _, err := io.ReadFull(r, wantChecksum[:]); err != nil {
		return nil, errors.Wrap(err, "snapshot: reading checksum")
	}
	if mnwire.Sha256D(payload) != mnwire.Hash(wantChecksum) {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func writeBytes(w io.Writer, data []byte) error {
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
