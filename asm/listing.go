package asm

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("asm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Listing is the build sidecar written next to assembled bytecode: which
// source produced it, a hash tying the two together, and the source line
// behind every instruction.
type Listing struct {
	Source       string         `cbor:"1,keyasint"` // source file path
	CodeHash     [32]byte       `cbor:"2,keyasint"` // sha-256 of the wire bytes
	Instructions []ListingEntry `cbor:"3,keyasint,omitempty"`
}

// ListingEntry describes one encoded instruction.
type ListingEntry struct {
	Index     int    `cbor:"1,keyasint"`
	Line      int    `cbor:"2,keyasint,omitempty"` // 0 for synthetic instructions
	Text      string `cbor:"3,keyasint,omitempty"`
	Tag       uint64 `cbor:"4,keyasint"`
	Operand   uint64 `cbor:"5,keyasint"`
	Synthetic bool   `cbor:"6,keyasint,omitempty"`
}

// NewListing builds the sidecar for an assembly result.
func NewListing(source string, res *Result) *Listing {
	l := &Listing{
		Source:   source,
		CodeHash: sha256.Sum256(res.Code),
	}
	for _, e := range res.Entries {
		l.Instructions = append(l.Instructions, ListingEntry{
			Index:     e.Index,
			Line:      e.Line,
			Text:      e.Text,
			Tag:       uint64(e.Op),
			Operand:   e.Operand,
			Synthetic: e.Synthetic,
		})
	}
	return l
}

// MarshalListing serializes a Listing to canonical CBOR bytes.
func MarshalListing(l *Listing) ([]byte, error) {
	return cborEncMode.Marshal(l)
}

// UnmarshalListing deserializes a Listing from CBOR bytes.
func UnmarshalListing(data []byte) (*Listing, error) {
	var l Listing
	if err := cbor.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("asm: unmarshal listing: %w", err)
	}
	return &l, nil
}

// Matches reports whether the sidecar describes the given wire bytes.
func (l *Listing) Matches(code []byte) bool {
	return l.CodeHash == sha256.Sum256(code)
}
