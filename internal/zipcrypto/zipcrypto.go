// Package zipcrypto implements the CryptoStream component (spec §4.6):
// the traditional PKZIP stream cipher, its 12-byte header check, and
// password-retry pacing.
//
// The cipher's three-register update step is a handful of XOR/multiply
// operations defined exactly by APPNOTE; no corpus example imports a
// library for PKZIP's legacy stream cipher specifically, so this stays
// hand-rolled hash/crc32-table-driven code. The header-byte check (the
// choice between CRC32-high-byte and mod-time-high-byte depending on
// general-purpose bit 3) is grounded on
// other_examples' AndreiTelteu-ZipCrack verifier, which performs the
// identical comparison when recovering a password on GPU hardware.
package zipcrypto

import (
	"errors"
	"hash/crc32"
)

// ErrBadPassword is returned by NewReader when the 12-byte header check fails.
var ErrBadPassword = errors.New("zipcrypto: incorrect password (header check failed)")

// HeaderLen is the length of the encryption header prefixing the ciphertext (spec §4.6).
const HeaderLen = 12

var crcTable = crc32.MakeTable(crc32.IEEE)

// keys holds the three 32-bit registers of the traditional PKZIP stream cipher.
type keys [3]uint32

func newKeys(password string) keys {
	k := keys{0x12345678, 0x23456789, 0x34567890}
	for i := 0; i < len(password); i++ {
		k.update(password[i])
	}
	return k
}

func (k *keys) update(b byte) {
	k[0] = crcByte(k[0], b)
	k[1] = k[1] + (k[0] & 0xff)
	k[1] = k[1]*134775813 + 1
	k[2] = crcByte(k[2], byte(k[1]>>24))
}

func crcByte(crc uint32, b byte) uint32 {
	return (crc >> 8) ^ crcTable[(crc^uint32(b))&0xff]
}

// streamByte returns the next keystream byte, derived from k2 per APPNOTE's "decrypt_byte" macro.
func (k *keys) streamByte() byte {
	temp := uint16(k[2]) | 2
	return byte((uint32(temp) * (uint32(temp) ^ 1)) >> 8)
}

// decryptByte advances the cipher by one ciphertext byte c, returning the plaintext byte.
func (k *keys) decryptByte(c byte) byte {
	p := c ^ k.streamByte()
	k.update(p)
	return p
}

// Reader decrypts a traditional-ZipCrypto ciphertext stream one byte at a time. It is strictly one-pass (spec
// §4.6): construct with NewReader, which both validates the password via the header check and leaves the
// cipher positioned to decrypt the payload that follows.
type Reader struct {
	k keys
}

// NewReader validates header (the HeaderLen-byte prefix read from the stream) against password, per spec §4.6:
// the header's final byte must equal the high byte of the entry's CRC-32, or (when general-purpose bit 3 is
// set) the high byte of the DOS mod-time word. On success it returns a Reader ready to decrypt subsequent
// bytes; on mismatch it returns ErrBadPassword, and the driver must not emit any plaintext.
func NewReader(password string, header [HeaderLen]byte, crc32Value uint32, bit3Set bool, modTimeHigh byte) (*Reader, error) {
	k := newKeys(password)

	var lastPlain byte
	for _, c := range header {
		lastPlain = k.decryptByte(c)
	}

	var want byte
	if bit3Set {
		want = modTimeHigh
	} else {
		want = byte(crc32Value >> 24)
	}

	if lastPlain != want {
		return nil, ErrBadPassword
	}

	return &Reader{k: k}, nil
}

// Decrypt decrypts p in place, returning the plaintext (same backing array as p).
func (r *Reader) Decrypt(p []byte) []byte {
	for i, c := range p {
		p[i] = r.k.decryptByte(c)
	}
	return p
}
