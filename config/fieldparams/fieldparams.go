// Package fieldparams holds the small fixed-size constants that SSZ
// container definitions need at compile time, separate from the tunable
// runtime values in config/params.
package fieldparams

const (
	// RootLength is the byte length of a 32-byte Merkle root or block hash.
	RootLength = 32
	// BLSPubkeyLength is the byte length of a compressed BLS12-381 public key.
	BLSPubkeyLength = 48
	// BLSSignatureLength is the byte length of a BLS12-381 signature.
	BLSSignatureLength = 96
	// JustificationBitsLength is the number of bits in the justification bitvector.
	JustificationBitsLength = 4
)
