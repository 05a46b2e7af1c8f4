package adaptive

import "fmt"

// Header bytes identifying the algorithm of a sealed payload.
const (
	tagAESGCM   byte = 1
	tagChaCha20 byte = 2
)

// Sealer encrypts with the host's preferred algorithm and decrypts
// payloads sealed by any algorithm the key supports.
type Sealer struct {
	preferred CipherType
	ciphers   map[byte]Cipher
}

// NewSealer creates a Sealer for key.
func NewSealer(key []byte) (*Sealer, error) {
	s := &Sealer{
		preferred: Preferred(len(key)),
		ciphers:   make(map[byte]Cipher, 2),
	}
	for tag, t := range map[byte]CipherType{tagAESGCM: CipherAESGCM, tagChaCha20: CipherChaCha20} {
		c, err := NewWithType(key, t)
		if err != nil {
			if t == s.preferred {
				return nil, err
			}
			continue
		}
		s.ciphers[tag] = c
	}
	return s, nil
}

// Type returns the algorithm used by Seal.
func (s *Sealer) Type() CipherType {
	return s.preferred
}

// Seal encrypts plaintext. The result is one header byte followed by the
// cipher's nonce and ciphertext.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	tag := tagAESGCM
	if s.preferred == CipherChaCha20 {
		tag = tagChaCha20
	}
	ct, err := s.ciphers[tag].Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	return append([]byte{tag}, ct...), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, ErrCiphertext
	}
	c, ok := s.ciphers[sealed[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported algorithm tag %d", ErrCiphertext, sealed[0])
	}
	return c.Decrypt(sealed[1:], additionalData)
}
