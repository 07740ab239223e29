//
// matrix.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

// BitMatrix implements a bit-packed row-major matrix. Each row is
// rowWidth bytes wide; the bit at logical row i, column j is bit j%8
// of byte j/8 of row i, LSB-first. All row operations panic on row
// width mismatch; none silently reshape the matrix.
type BitMatrix struct {
	data     []byte
	rowWidth int
}

// NewBitMatrix creates a new matrix over data with the given row
// width in bytes.
func NewBitMatrix(data []byte, rowWidth int) *BitMatrix {
	if rowWidth <= 0 || len(data)%rowWidth != 0 {
		panic("ot: matrix is not rectangular")
	}
	return &BitMatrix{
		data:     data,
		rowWidth: rowWidth,
	}
}

// NewZeroBitMatrix creates a new zero matrix with rows rows of
// rowWidth bytes.
func NewZeroBitMatrix(rows, rowWidth int) *BitMatrix {
	return NewBitMatrix(make([]byte, rows*rowWidth), rowWidth)
}

// Rows returns the number of rows.
func (m *BitMatrix) Rows() int {
	return len(m.data) / m.rowWidth
}

// RowWidth returns the row width in bytes.
func (m *BitMatrix) RowWidth() int {
	return m.rowWidth
}

// Len returns the number of bytes in the matrix.
func (m *BitMatrix) Len() int {
	return len(m.data)
}

// Data returns the matrix data.
func (m *BitMatrix) Data() []byte {
	return m.data
}

// Row returns row i.
func (m *BitMatrix) Row(i int) []byte {
	return m.data[i*m.rowWidth : (i+1)*m.rowWidth]
}

// Bit returns the bit at row i, column j.
func (m *BitMatrix) Bit(i, j int) uint {
	return uint(m.Row(i)[j/8]>>(j%8)) & 1
}

// AppendRow appends the row to the matrix.
func (m *BitMatrix) AppendRow(row []byte) {
	if len(row) != m.rowWidth {
		panic("ot: row width does not match")
	}
	m.data = append(m.data, row...)
}

// Extend appends the rows of o to the matrix.
func (m *BitMatrix) Extend(o *BitMatrix) {
	if o.rowWidth != m.rowWidth {
		panic("ot: row width does not match")
	}
	m.data = append(m.data, o.data...)
}

// Take moves all rows out of the matrix, leaving it empty.
func (m *BitMatrix) Take() *BitMatrix {
	data := m.data
	m.data = nil
	return &BitMatrix{
		data:     data,
		rowWidth: m.rowWidth,
	}
}

// SplitOffRows splits the matrix at the row idx and returns the
// split-off tail rows.
func (m *BitMatrix) SplitOffRows(idx int) *BitMatrix {
	tail := m.data[idx*m.rowWidth:]
	m.data = m.data[:idx*m.rowWidth]
	return &BitMatrix{
		data:     append([]byte{}, tail...),
		rowWidth: m.rowWidth,
	}
}

// DrainRows moves the rows [start, end) out of the matrix and
// returns them.
func (m *BitMatrix) DrainRows(start, end int) *BitMatrix {
	s := start * m.rowWidth
	e := end * m.rowWidth

	drained := append([]byte{}, m.data[s:e]...)
	m.data = append(m.data[:s], m.data[e:]...)

	return &BitMatrix{
		data:     drained,
		rowWidth: m.rowWidth,
	}
}

// TruncateRows truncates the matrix to n rows.
func (m *BitMatrix) TruncateRows(n int) {
	m.data = m.data[:n*m.rowWidth]
}

// TransposeBits transposes the matrix bitwise in place: the matrix is
// treated as a rows x (rowWidth*8) bit matrix, transposed, and
// repacked so that the bit at row i, column j of the input is the bit
// at row j, column i of the output. The row count must be a multiple
// of 8.
func (m *BitMatrix) TransposeBits() {
	rows := m.Rows()
	if rows%8 != 0 {
		panic("ot: row count must be a multiple of 8")
	}
	w := m.rowWidth
	nw := rows / 8

	out := make([]byte, len(m.data))
	for a := 0; a < nw; a++ {
		for b := 0; b < w; b++ {
			var x uint64
			for r := 0; r < 8; r++ {
				x |= uint64(m.data[(a*8+r)*w+b]) << (8 * r)
			}
			x = transpose8x8(x)
			for c := 0; c < 8; c++ {
				out[(b*8+c)*nw+a] = byte(x >> (8 * c))
			}
		}
	}
	m.data = out
	m.rowWidth = nw
}

// transpose8x8 transposes an 8x8 bit block packed row-major into a
// 64-bit word, row r in byte r, LSB-first columns.
func transpose8x8(x uint64) uint64 {
	t := (x ^ x>>7) & 0x00aa00aa00aa00aa
	x = x ^ t ^ t<<7
	t = (x ^ x>>14) & 0x0000cccc0000cccc
	x = x ^ t ^ t<<14
	t = (x ^ x>>28) & 0x00000000f0f0f0f0
	x = x ^ t ^ t<<28
	return x
}
