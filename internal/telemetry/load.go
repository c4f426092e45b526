package telemetry

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-cs-zones/internal/model"
)

// row is the on-disk shape of one telemetry record.
type row struct {
	Team      string       `json:"team"`
	Side      string       `json:"side"`
	Player    string       `json:"player"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Z         float64      `json:"z"`
	AreaName  string       `json:"area_name"`
	Seconds   int          `json:"seconds"`
	IsAlive   bool         `json:"is_alive"`
	Inventory []model.Item `json:"inventory"`
}

func (r row) toSample() (model.Sample, error) {
	side, err := model.ParseSide(r.Side)
	if err != nil {
		return model.Sample{}, err
	}
	if r.Seconds < 0 {
		return model.Sample{}, fmt.Errorf("negative seconds %d", r.Seconds)
	}
	return model.Sample{
		Team:      r.Team,
		Side:      side,
		Player:    r.Player,
		Pos:       model.Position{X: r.X, Y: r.Y, Z: r.Z},
		AreaName:  r.AreaName,
		Seconds:   r.Seconds,
		IsAlive:   r.IsAlive,
		Inventory: r.Inventory,
	}, nil
}

// IsTabular reports whether path looks like a JSON telemetry export
// (optionally compressed) rather than a demo file.
func IsTabular(path string) bool {
	p := strings.ToLower(path)
	for _, ext := range []string{".gz", ".zst", ".bz2"} {
		p = strings.TrimSuffix(p, ext)
	}
	return strings.HasSuffix(p, ".json") || strings.HasSuffix(p, ".jsonl") || strings.HasSuffix(p, ".ndjson")
}

// Open opens path and wraps it in a decompressor chosen by file suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry: %w", err)
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".bz2"):
		return readCloser{Reader: bzip2.NewReader(f), close: f.Close}, nil
	case strings.HasSuffix(lower, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return readCloser{Reader: gz, close: func() error {
			gz.Close()
			return f.Close()
		}}, nil
	}
	return f, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// LoadFile reads a telemetry export and returns its samples together with
// the sha256 of the raw (still compressed) file, used as the dataset ID.
func LoadFile(path string) ([]model.Sample, string, error) {
	hash, err := hashFile(path)
	if err != nil {
		return nil, "", err
	}
	rc, err := Open(path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	samples, err := Decode(rc)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return samples, hash, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open telemetry: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash telemetry: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Decode reads either a JSON array of rows or newline-delimited rows.
func Decode(r io.Reader) ([]model.Sample, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	var out []model.Sample
	if first == '[' {
		var rows []row
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		out = make([]model.Sample, 0, len(rows))
		for i, rw := range rows {
			s, err := rw.toSample()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			out = append(out, s)
		}
		return out, nil
	}

	for n := 1; ; n++ {
		var rw row
		err := dec.Decode(&rw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		s, err := rw.toSample()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
