// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// Blob is an owning, immutable byte buffer. It is used for shader
// code (DXIL/SPIR-V) and for upload payloads (pixel/vertex byte
// arrays). Blobs are cheaply shareable: the underlying array is never
// copied after NewBlob returns.
type Blob struct {
	data []byte
}

// NewBlob takes ownership of data and returns an immutable Blob.
// Callers must not retain or mutate data after this call.
func NewBlob(data []byte) *Blob {
	return &Blob{data: data}
}

// Bytes returns the blob's contents. The returned slice must not be
// modified.
func (b *Blob) Bytes() []byte { return b.data }

// Len returns the number of bytes in the blob.
func (b *Blob) Len() int { return len(b.data) }
