package flat

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	storagefile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	indexMagic   = "DQIX"
	indexVersion = uint32(1)

	indexExt = ".index"
	metaExt  = ".meta"
)

// header precedes the vector rows in an .index file.
type header struct {
	Magic   [4]byte
	Version uint32
	Dims    uint32
	Rows    uint32
}

// encodeVectors writes the header and rows as little-endian float32.
func encodeVectors(w io.Writer, dims int, data []float32) error {
	rows := 0
	if dims > 0 {
		rows = len(data) / dims
	}
	h := header{Version: indexVersion, Dims: uint32(dims), Rows: uint32(rows)}
	copy(h.Magic[:], indexMagic)

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, 4)
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return bw.Flush()
}

// headerSize is the encoded length of header.
const headerSize = 16

// decodeVectors reads an .index payload of size bytes and returns its
// dimension and flat rows. The header must account for exactly size bytes.
func decodeVectors(r io.Reader, size int64) (int, []float32, error) {
	br := bufio.NewReader(r)
	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if string(h.Magic[:]) != indexMagic {
		return 0, nil, fmt.Errorf("bad magic %q", h.Magic[:])
	}
	if h.Version != indexVersion {
		return 0, nil, fmt.Errorf("unsupported index version %d", h.Version)
	}
	if h.Dims == 0 || h.Rows == 0 {
		return 0, nil, errors.New("empty index")
	}

	// Both factors are uint32, so the product fits in a uint64.
	values := uint64(h.Dims) * uint64(h.Rows)
	payload := uint64(size - headerSize)
	if size < headerSize || payload%4 != 0 || payload/4 != values {
		return 0, nil, fmt.Errorf("header declares %d x %d values but file holds %d bytes", h.Rows, h.Dims, size)
	}

	data := make([]float32, values)
	buf := make([]byte, 4)
	for i := range data {
		if _, err := io.ReadFull(br, buf); err != nil {
			return 0, nil, fmt.Errorf("read row %d: %w", i/int(h.Dims), err)
		}
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return 0, nil, errors.New("trailing data after rows")
	}
	return int(h.Dims), data, nil
}

func stageIndexFile(path string, dims int, data []float32) (string, error) {
	return storagefile.StageFile(path, func(w io.Writer) error {
		return encodeVectors(w, dims, data)
	})
}

func stageMetaFile(path string, meta []domain.SubChunk) (string, error) {
	return storagefile.StageFile(path, func(w io.Writer) error {
		if err := json.NewEncoder(w).Encode(meta); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		return nil
	})
}

func readIndexFile(path string) (int, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("stat index: %w", err)
	}
	return decodeVectors(f, info.Size())
}

func readMetaFile(path string) ([]domain.SubChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta []domain.SubChunk
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
