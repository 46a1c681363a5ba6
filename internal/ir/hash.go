package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// changing the canonical form later.
const (
	DomainOutline = "surveykn/outline/v1"
	DomainDataset = "surveykn/dataset/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OutlineHash identifies an outline by content. Resolving the same outline
// against an unchanged store yields the same hash.
func OutlineHash(g *Group) (string, error) {
	data, err := MarshalOutline(g)
	if err != nil {
		return "", fmt.Errorf("OutlineHash: %w", err)
	}
	return hashWithDomain(DomainOutline, data), nil
}

// DatasetHash identifies a dataset by its columns and cells.
func DatasetHash(d *Dataset) (string, error) {
	rows := make(List, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = StrList(row)
	}
	data, err := MarshalCanonical(Object{
		"columns": StrList(d.Columns),
		"rows":    rows,
	})
	if err != nil {
		return "", fmt.Errorf("DatasetHash: %w", err)
	}
	return hashWithDomain(DomainDataset, data), nil
}
