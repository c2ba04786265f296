package index

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// ErrNoIndex is returned by Load when neither file of the pair exists.
var ErrNoIndex = fmt.Errorf("no saved index: %w", fs.ErrNotExist)

const (
	indexExt = ".index"
	metaExt  = ".meta"

	vectorMagic   = "HVEC"
	vectorVersion = 1
)

// Paths returns the vector and metadata file names for base.
func Paths(base string) (vectors, meta string) {
	return base + indexExt, base + metaExt
}

// storedChunk is the on-disk chunk record. Metadata values are arbitrary
// JSON-shaped data, which gob cannot carry in interface fields without
// registering every concrete type, so they are kept as JSON text.
type storedChunk struct {
	DocID    string
	Page     int
	Type     string
	Text     string
	Metadata []byte
}

// Save writes the index as a pair of files sharing base: <base>.index
// holds the vectors, <base>.meta the chunks. Each file is written to a
// temporary name and renamed into place.
func (ix *Index) Save(base string) error {
	if len(ix.vectors) != len(ix.chunks) {
		return fmt.Errorf("save: %d vectors for %d chunks: %w", len(ix.vectors), len(ix.chunks), ErrIndexInconsistent)
	}
	vecPath, metaPath := Paths(base)

	records := make([]storedChunk, len(ix.chunks))
	for i, c := range ix.chunks {
		rec := storedChunk{DocID: c.DocID, Page: c.Page, Type: string(c.Type), Text: c.Text}
		if len(c.Metadata) > 0 {
			raw, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("save: chunk %d metadata: %w", i, err)
			}
			rec.Metadata = raw
		}
		records[i] = rec
	}
	var meta bytes.Buffer
	if err := gob.NewEncoder(&meta).Encode(records); err != nil {
		return fmt.Errorf("save: encode chunks: %w", err)
	}

	if err := writeAtomic(vecPath, encodeVectors(ix.dim, ix.vectors)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := writeAtomic(metaPath, meta.Bytes()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	ix.logger.Info("index saved", "base", base, "chunks", len(ix.chunks), "dim", ix.dim)
	return nil
}

// Load replaces the index contents with the pair saved under base. Both
// files must exist and agree; otherwise the index is left untouched.
// ErrNoIndex reports that nothing was saved under base yet.
func (ix *Index) Load(base string) error {
	vecPath, metaPath := Paths(base)
	vecRaw, vecErr := os.ReadFile(vecPath)
	metaRaw, metaErr := os.ReadFile(metaPath)
	switch {
	case errors.Is(vecErr, fs.ErrNotExist) && errors.Is(metaErr, fs.ErrNotExist):
		return ErrNoIndex
	case errors.Is(vecErr, fs.ErrNotExist):
		return fmt.Errorf("load: %s missing while %s exists: %w", vecPath, metaPath, ErrIndexInconsistent)
	case errors.Is(metaErr, fs.ErrNotExist):
		return fmt.Errorf("load: %s missing while %s exists: %w", metaPath, vecPath, ErrIndexInconsistent)
	case vecErr != nil:
		return fmt.Errorf("load: %w", vecErr)
	case metaErr != nil:
		return fmt.Errorf("load: %w", metaErr)
	}

	dim, vectors, err := decodeVectors(vecRaw)
	if err != nil {
		return fmt.Errorf("load %s: %w", vecPath, err)
	}
	var records []storedChunk
	if err := gob.NewDecoder(bytes.NewReader(metaRaw)).Decode(&records); err != nil {
		return fmt.Errorf("load %s: %v: %w", metaPath, err, ErrIndexInconsistent)
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("load: %d vectors for %d chunks: %w", len(vectors), len(records), ErrIndexInconsistent)
	}
	if ix.embedder.Dimensions() != 0 && len(vectors) > 0 && dim != ix.embedder.Dimensions() {
		return fmt.Errorf("load: saved dimension %d, embedder produces %d: %w", dim, ix.embedder.Dimensions(), ErrDimension)
	}

	chunks := make([]hebrew.Chunk, len(records))
	for i, rec := range records {
		c := hebrew.Chunk{DocID: rec.DocID, Page: rec.Page, Type: hebrew.ContentType(rec.Type), Text: rec.Text}
		if len(rec.Metadata) > 0 {
			if err := json.Unmarshal(rec.Metadata, &c.Metadata); err != nil {
				return fmt.Errorf("load: chunk %d metadata: %v: %w", i, err, ErrIndexInconsistent)
			}
		}
		chunks[i] = c
	}

	if len(vectors) > 0 {
		ix.dim = dim
	}
	ix.vectors = vectors
	ix.chunks = chunks
	ix.logger.Info("index loaded", "base", base, "chunks", len(chunks), "dim", ix.dim)
	return nil
}

// encodeVectors lays out magic, version, dim and count as little-endian
// uint32s followed by count*dim float32s.
func encodeVectors(dim int, vectors [][]float32) []byte {
	out := make([]byte, 0, 16+4*dim*len(vectors))
	out = append(out, vectorMagic...)
	out = binary.LittleEndian.AppendUint32(out, vectorVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(vectors)))
	for _, v := range vectors {
		for _, f := range v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < 16 || string(data[:4]) != vectorMagic {
		return 0, nil, fmt.Errorf("not a vector file: %w", ErrIndexInconsistent)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != vectorVersion {
		return 0, nil, fmt.Errorf("unsupported vector file version %d: %w", v, ErrIndexInconsistent)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	body := data[16:]
	if len(body) != 4*dim*n {
		return 0, nil, fmt.Errorf("vector file holds %d bytes, want %d: %w", len(body), 4*dim*n, ErrIndexInconsistent)
	}
	vectors := make([][]float32, n)
	off := 0
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
			off += 4
		}
		vectors[i] = v
	}
	return dim, vectors, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
