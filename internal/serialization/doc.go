// Package serialization implements the .ptl artifact container used for
// exported depth models and weight files.
//
// Format structure:
//
//	[64 bytes: fixed header]
//	  0x00  magic "DPTL"
//	  0x04  format version (uint32 LE)
//	  0x08  flags (uint32 LE)
//	  0x0C  reserved
//	  0x10  JSON header size (uint64 LE)
//	  0x18  data section size (uint64 LE)
//	  0x20  SHA-256 checksum of the data section (32 bytes)
//	[JSON header: graph, tensor metadata, artifact metadata]
//	[padding to 64-byte alignment]
//	[tensor data: raw bytes, tensors packed back to back]
//
// A single container serves two kinds of files: exported program
// artifacts (kind "graph", header embeds the operation graph and the
// tensors are its constants) and weight checkpoints (kind
// "state_dict", no graph, tensors are named parameters).
//
// Example usage:
//
//	w, err := serialization.NewWriter("depth.ptl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//	if err := w.WriteArtifact(g, constants, header); err != nil {
//	    log.Fatal(err)
//	}
package serialization
