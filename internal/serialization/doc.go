// Package serialization implements the NNFS parameter container used to save
// and restore trained networks.
//
//	Format Structure:
//	  [4 bytes: Magic "NNFS"]
//	  [4 bytes: Version (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [8 bytes: Data Size (uint64 LE)]
//	  [32 bytes: SHA-256 of header JSON followed by tensor data]
//	  [Header: JSON metadata]
//	  [Tensor data: float64 LE, in header order]
//
// Every tensor is tagged with its name, the index of the layer that owns it
// and its shape. Readers verify the checksum before any value is decoded, so
// a truncated or corrupted file is reported instead of half-loaded.
//
// Example usage:
//
//	entries := []serialization.Entry{{Name: "0.dense.weight", Layer: 0, Tensor: w}}
//	if err := serialization.SaveFile("xor.nnfs", entries, "Sequential", nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := serialization.LoadFile("xor.nnfs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict := r.StateDict()
package serialization
