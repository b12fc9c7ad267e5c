// Package ccf reads and writes CCF archives: a flat, fixed-layout container
// that bundles named files into one blob, compressing each member
// independently.
//
// An archive consists of:
//   - A 32-byte header: the magic "CCF\x00", the chunk size at 0x10 and the
//     member count at 0x14, all little-endian.
//   - One 32-byte descriptor per member: a 20-byte null-padded name, then
//     the payload offset (in chunks), the stored size and the restored size.
//   - The data region: payloads in member order, each starting on a chunk
//     boundary.
//
// A member whose stored size equals its restored size is stored verbatim;
// any other member is a compressed stream. The encoder keeps a compressed
// payload only when it is strictly smaller than the original.
package ccf
