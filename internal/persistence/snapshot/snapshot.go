package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"gigcraft.ai/internal/sim/career"
)

const Version = 1

var ErrDigestMismatch = errors.New("snapshot digest mismatch")

//go:embed schemas/header.schema.json
var headerSchemaJSON []byte

const headerSchemaID = "https://gigcraft.ai/schemas/snapshot-header.schema.json"

var (
	headerOnce   sync.Once
	headerSchema *jsonschema.Schema
	headerErr    error
)

func compiledHeader() (*jsonschema.Schema, error) {
	headerOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(headerSchemaID, bytes.NewReader(headerSchemaJSON)); err != nil {
			headerErr = err
			return
		}
		headerSchema, headerErr = c.Compile(headerSchemaID)
	})
	return headerSchema, headerErr
}

// Header is the first line of a save file. It can be read without decoding
// the state behind it.
type Header struct {
	Version       int    `json:"version"`
	RunID         string `json:"run_id"`
	Week          int    `json:"week"`
	Seq           int    `json:"seq"`
	Digest        string `json:"digest"`
	CatalogDigest string `json:"catalog_digest,omitempty"`
	GameOver      bool   `json:"game_over,omitempty"`
}

// Digest is the sha256 of the state's persistence encoding.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// WriteSnapshot saves s to path: a JSON header line followed by the encoded
// state, zstd-compressed. seq is the number of logged commands the state
// reflects. The file is written next to path and renamed into place.
func WriteSnapshot(path string, s *career.GameState, seq int, catalogDigest string) (Header, error) {
	body, err := career.Encode(s)
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Version:       Version,
		RunID:         s.RunID,
		Week:          s.Week,
		Seq:           seq,
		Digest:        Digest(body),
		CatalogDigest: catalogDigest,
		GameOver:      s.IsGameOver,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, err
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, h, body); err != nil {
		_ = os.Remove(tmp)
		return Header{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Header{}, err
	}
	return h, nil
}

func writeFile(path string, h Header, body []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func readHeaderLine(br *bufio.Reader) (Header, error) {
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	sch, err := compiledHeader()
	if err != nil {
		return Header{}, fmt.Errorf("header schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(line, &doc); err != nil {
		return Header{}, fmt.Errorf("header: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Header{}, fmt.Errorf("header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func open(path string) (*os.File, *zstd.Decoder, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, err
	}
	return f, dec, bufio.NewReaderSize(dec, 64*1024), nil
}

func ReadHeader(path string) (Header, error) {
	f, dec, br, err := open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	defer dec.Close()
	return readHeaderLine(br)
}

// ReadSnapshot loads a save and checks the state against the header digest.
func ReadSnapshot(path string) (Header, *career.GameState, error) {
	f, dec, br, err := open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	defer dec.Close()

	h, err := readHeaderLine(br)
	if err != nil {
		return Header{}, nil, err
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return h, nil, fmt.Errorf("read state: %w", err)
	}
	if got := Digest(body); got != h.Digest {
		return h, nil, fmt.Errorf("%w: header %s, body %s", ErrDigestMismatch, h.Digest, got)
	}
	s, err := career.Decode(body)
	if err != nil {
		return h, nil, err
	}
	return h, s, nil
}

// PathFor is where a run's save for a given week lives under dir.
func PathFor(dir, runID string, week int) string {
	return filepath.Join(dir, runID, "snapshots", fmt.Sprintf("%06d.snap.zst", week))
}

// Weeks lists the saved weeks of a run in ascending order.
func Weeks(dir, runID string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(dir, runID, "snapshots"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var weeks []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".snap.zst")
		if !ok {
			continue
		}
		w, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

// Latest loads the newest save of a run.
func Latest(dir, runID string) (Header, *career.GameState, error) {
	weeks, err := Weeks(dir, runID)
	if err != nil {
		return Header{}, nil, err
	}
	if len(weeks) == 0 {
		return Header{}, nil, fmt.Errorf("run %s: %w", runID, os.ErrNotExist)
	}
	return ReadSnapshot(PathFor(dir, runID, weeks[len(weeks)-1]))
}
