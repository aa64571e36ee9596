// Package snapshot packs a finished dataset (record stream, summary,
// sidecar files) into a versioned, verifiable archive. The manifest records
// size, SHA-256, and BLAKE3 for every file, so a snapshot can be re-hashed
// and checked long after the run that produced it.
package snapshot

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	rverrors "github.com/vedakosh/rigveda/core/errors"
)

// Version is the snapshot manifest format version.
const Version = "1.0.0"

// ManifestName is the manifest's path inside the archive.
const ManifestName = "manifest.json"

// Compression selects the archive codec.
type Compression string

const (
	// CompressionXZ is the default tar.xz codec.
	CompressionXZ Compression = "xz"
	// CompressionGzip is the tar.gz alternative.
	CompressionGzip Compression = "gzip"
)

var validCompressions = map[Compression]bool{
	CompressionXZ:   true,
	CompressionGzip: true,
}

// IsValid returns true if the compression codec is supported.
func (c Compression) IsValid() bool {
	return validCompressions[c]
}

// ToolInfo names the tool that wrote the snapshot.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FileRecord describes one archived file.
type FileRecord struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
	BLAKE3    string `json:"blake3"`
}

// Manifest is the snapshot's manifest.json.
type Manifest struct {
	SnapshotVersion string       `json:"snapshot_version"`
	SnapshotID      string       `json:"snapshot_id"`
	CreatedAt       string       `json:"created_at"`
	Tool            ToolInfo     `json:"tool"`
	RunID           string       `json:"run_id,omitempty"`
	RecordCount     int          `json:"record_count,omitempty"`
	Files           []FileRecord `json:"files"`
}

// Meta carries the run context recorded in the manifest.
type Meta struct {
	Tool        ToolInfo
	RunID       string
	RecordCount int
}

// hashFile returns size, SHA-256, and BLAKE3 of a file.
func hashFile(path string) (int64, string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, "", "", rverrors.NewIO("read", path, err)
	}
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return int64(len(data)), hex.EncodeToString(s[:]), hex.EncodeToString(b[:]), nil
}

// Create packs the given files plus a freshly built manifest into an
// archive at outPath. File names inside the archive are base names; two
// inputs with the same base name are an error.
func Create(outPath string, files []string, meta Meta, comp Compression) (*Manifest, error) {
	if comp == "" {
		comp = CompressionXZ
	}
	if !comp.IsValid() {
		return nil, rverrors.NewUnsupported("compression", string(comp))
	}
	if len(files) == 0 {
		return nil, rverrors.NewValidation("files", "snapshot needs at least one file")
	}

	m := &Manifest{
		SnapshotVersion: Version,
		SnapshotID:      uuid.NewString(),
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		Tool:            meta.Tool,
		RunID:           meta.RunID,
		RecordCount:     meta.RecordCount,
	}

	seen := make(map[string]bool)
	for _, path := range files {
		name := filepath.Base(path)
		if seen[name] {
			return nil, rverrors.NewValidation("files", fmt.Sprintf("duplicate archive name %q", name))
		}
		seen[name] = true
		size, sha, b3, err := hashFile(path)
		if err != nil {
			return nil, err
		}
		m.Files = append(m.Files, FileRecord{
			Name: name, SizeBytes: size, SHA256: sha, BLAKE3: b3,
		})
	}

	if err := writeArchive(outPath, files, m, comp); err != nil {
		return nil, err
	}
	return m, nil
}

func writeArchive(outPath string, files []string, m *Manifest, comp Compression) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return rverrors.NewIO("create", filepath.Dir(outPath), err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return rverrors.NewIO("create", outPath, err)
	}
	defer out.Close()

	var cw io.WriteCloser
	switch comp {
	case CompressionGzip:
		cw = gzip.NewWriter(out)
	default:
		xw, err := xz.NewWriter(out)
		if err != nil {
			return rverrors.Wrap(err, "init xz writer")
		}
		cw = xw
	}

	tw := tar.NewWriter(cw)
	now := time.Now()

	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return rverrors.Wrap(err, "encode manifest")
	}
	if err := writeTarFile(tw, ManifestName, manifestData, now); err != nil {
		return err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return rverrors.NewIO("read", path, err)
		}
		if err := writeTarFile(tw, filepath.Base(path), data, now); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return rverrors.Wrap(err, "close tar stream")
	}
	if err := cw.Close(); err != nil {
		return rverrors.Wrap(err, "close compressor")
	}
	return nil
}

func writeTarFile(tw *tar.Writer, name string, data []byte, mod time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: mod,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return rverrors.Wrapf(err, "write tar header %s", name)
	}
	if _, err := tw.Write(data); err != nil {
		return rverrors.Wrapf(err, "write tar entry %s", name)
	}
	return nil
}

// openReader wraps the archive in the right decompressor, sniffing gzip by
// magic bytes and defaulting to xz otherwise.
func openReader(f *os.File) (io.Reader, error) {
	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, rverrors.Wrap(err, "read archive magic")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, rverrors.Wrap(err, "rewind archive")
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(f)
	}
	return xz.NewReader(f)
}

// readEntries loads every file in the archive into memory, keyed by name.
func readEntries(archivePath string) (map[string][]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, rverrors.NewIO("open", archivePath, err)
	}
	defer f.Close()

	r, err := openReader(f)
	if err != nil {
		return nil, err
	}

	entries := make(map[string][]byte)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rverrors.Wrap(err, "read tar stream")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, rverrors.Wrapf(err, "read tar entry %s", hdr.Name)
		}
		entries[filepath.Base(hdr.Name)] = data
	}
	return entries, nil
}

// Read returns the archive's manifest without verifying contents.
func Read(archivePath string) (*Manifest, error) {
	entries, err := readEntries(archivePath)
	if err != nil {
		return nil, err
	}
	data, ok := entries[ManifestName]
	if !ok {
		return nil, rverrors.NewNotFound("manifest", archivePath)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &rverrors.ParseError{Format: "JSON", Path: archivePath, Message: err.Error(), Err: err}
	}
	return &m, nil
}

// Verify re-hashes every archived file against the manifest. It returns
// the manifest on success and a detailed error naming the first mismatch
// otherwise.
func Verify(archivePath string) (*Manifest, error) {
	entries, err := readEntries(archivePath)
	if err != nil {
		return nil, err
	}
	data, ok := entries[ManifestName]
	if !ok {
		return nil, rverrors.NewNotFound("manifest", archivePath)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &rverrors.ParseError{Format: "JSON", Path: archivePath, Message: err.Error(), Err: err}
	}

	for _, fr := range m.Files {
		content, ok := entries[fr.Name]
		if !ok {
			return nil, rverrors.NewNotFound("snapshot file", fr.Name)
		}
		if int64(len(content)) != fr.SizeBytes {
			return nil, rverrors.NewValidation(fr.Name,
				fmt.Sprintf("size %d does not match manifest %d", len(content), fr.SizeBytes))
		}
		s := sha256.Sum256(content)
		if got := hex.EncodeToString(s[:]); got != fr.SHA256 {
			return nil, rverrors.NewValidation(fr.Name,
				fmt.Sprintf("sha256 %s does not match manifest %s", got, fr.SHA256))
		}
		b := blake3.Sum256(content)
		if got := hex.EncodeToString(b[:]); got != fr.BLAKE3 {
			return nil, rverrors.NewValidation(fr.Name,
				fmt.Sprintf("blake3 %s does not match manifest %s", got, fr.BLAKE3))
		}
	}
	return &m, nil
}

// Extract unpacks the archive into destDir, manifest included.
func Extract(archivePath, destDir string) error {
	entries, err := readEntries(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return rverrors.NewIO("create", destDir, err)
	}
	for name, data := range entries {
		// Names were flattened on write; reject anything that still
		// tries to traverse.
		if strings.Contains(name, "..") {
			return rverrors.NewValidation("entry", fmt.Sprintf("unsafe archive name %q", name))
		}
		dest := filepath.Join(destDir, name)
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return rverrors.NewIO("write", dest, err)
		}
	}
	return nil
}

// CompressionForPath infers the codec from an output file name.
func CompressionForPath(path string) Compression {
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".tgz") {
		return CompressionGzip
	}
	return CompressionXZ
}
