package embcache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kuaixun/fusearch/internal/domain"
)

// Cache value layout, little-endian:
//
//	u32 dense length | dense f32s | u32 sparse length | sparse u32 indices | sparse f32 values
func encodePair(sparse domain.SparseVector, dense []float32) []byte {
	buf := make([]byte, 0, 8+4*len(dense)+8*len(sparse.Indices))

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(dense)))
	for _, f := range dense {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sparse.Indices)))
	for _, idx := range sparse.Indices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	for _, v := range sparse.Values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func decodePair(data []byte) (domain.SparseVector, []float32, error) {
	read := func(n int) ([]byte, error) {
		if len(data) < n {
			return nil, fmt.Errorf("cached embedding truncated: want %d bytes, have %d", n, len(data))
		}
		chunk := data[:n]
		data = data[n:]
		return chunk, nil
	}

	head, err := read(4)
	if err != nil {
		return domain.SparseVector{}, nil, err
	}
	denseLen := int(binary.LittleEndian.Uint32(head))
	raw, err := read(4 * denseLen)
	if err != nil {
		return domain.SparseVector{}, nil, err
	}
	dense := make([]float32, denseLen)
	for i := range dense {
		dense[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	head, err = read(4)
	if err != nil {
		return domain.SparseVector{}, nil, err
	}
	sparseLen := int(binary.LittleEndian.Uint32(head))
	rawIdx, err := read(4 * sparseLen)
	if err != nil {
		return domain.SparseVector{}, nil, err
	}
	rawVal, err := read(4 * sparseLen)
	if err != nil {
		return domain.SparseVector{}, nil, err
	}

	sparse := domain.SparseVector{
		Indices: make([]uint32, sparseLen),
		Values:  make([]float32, sparseLen),
	}
	for i := 0; i < sparseLen; i++ {
		sparse.Indices[i] = binary.LittleEndian.Uint32(rawIdx[i*4:])
		sparse.Values[i] = math.Float32frombits(binary.LittleEndian.Uint32(rawVal[i*4:]))
	}

	if len(data) != 0 {
		return domain.SparseVector{}, nil, fmt.Errorf("cached embedding has %d trailing bytes", len(data))
	}
	return sparse, dense, nil
}
