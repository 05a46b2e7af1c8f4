// Package adaptive provides authenticated encryption that picks its
// algorithm from the key and the host.
//
// AES-GCM is preferred where the CPU accelerates AES; ChaCha20-Poly1305 is
// used elsewhere when the key is 32 bytes. A Sealer tags every sealed
// payload with the algorithm that produced it, so data written on one host
// opens on any other host holding the same key.
package adaptive
