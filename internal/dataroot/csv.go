package dataroot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/surveykn/internal/ir"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a survey export. The first record is the header; every row
// must have as many cells as the header.
func ReadCSV(path string) (*ir.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// DecodeCSV decodes a header line and rows. A leading UTF-8 byte order mark,
// common in spreadsheet exports, is dropped.
func DecodeCSV(r io.Reader) (*ir.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty: no header line")
	}
	if err != nil {
		return nil, err
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return ir.NewDataset(header, rows)
}

// WriteCSV writes d with its header.
func WriteCSV(path string, d *ir.Dataset) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, d); err != nil {
		return err
	}
	return WriteFile(path, buf.Bytes())
}

func EncodeCSV(w io.Writer, d *ir.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return err
	}
	return cw.Error()
}
