package decomp

import (
	"errors"
	"fmt"
	"io"
)

// deflate64 implements RFC 1951 Deflate decoding extended per APPNOTE's Deflate64 note: a 64 KiB sliding window
// (instead of Deflate's 32 KiB) and an extended length code 285 (16-bit extra field, max length 65538 instead of
// terminating at 258) plus two additional distance codes (30, 31) reaching the wider window.
//
// No published pure-Go Deflate64 decoder exists in the corpus: haapjari-btidy/pkg/deflate64's only real
// implementation requires linking a native zlib build (reader_nocgo.go hard-errors "deflate64 requires cgo
// support"). Since this engine's decoders must work without cgo, this is a small first-party extension of the
// standard Huffman/bit-reading machinery klauspost/compress/flate already implements for Deflate, generalized
// to the wider window and extra codes.
type deflate64 struct {
	br     *bitReader
	window []byte // 64 KiB ring buffer
	wpos   int
	wfull  bool

	out []byte // pending decoded bytes not yet returned to the caller
}

func deflate64Factory(r io.Reader, _ uint64) (io.ReadCloser, error) {
	return &deflate64Closer{d: &deflate64{
		br:     newBitReader(r),
		window: make([]byte, 65536),
	}}, nil
}

type deflate64Closer struct {
	d   *deflate64
	err error
}

func (c *deflate64Closer) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.d.Read(p)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

func (c *deflate64Closer) Close() error { return nil }

func (d *deflate64) Read(p []byte) (int, error) {
	for len(d.out) == 0 {
		done, err := d.inflateBlock()
		if err != nil {
			return 0, err
		}
		if done && len(d.out) == 0 {
			return 0, io.EOF
		}
	}

	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

func (d *deflate64) emit(b byte) {
	d.window[d.wpos] = b
	d.wpos = (d.wpos + 1) & 0xffff
	if d.wpos == 0 {
		d.wfull = true
	}
	d.out = append(d.out, b)
}

func (d *deflate64) copyMatch(length int, distance int) error {
	if distance <= 0 || distance > 65536 {
		return errors.New("deflate64: invalid distance")
	}
	for i := 0; i < length; i++ {
		srcPos := (d.wpos - distance) & 0xffff
		d.emit(d.window[srcPos])
	}
	return nil
}

// inflateBlock decodes exactly one deflate block, returning done=true when it was the final block.
func (d *deflate64) inflateBlock() (done bool, err error) {
	final, err := d.br.readBits(1)
	if err != nil {
		return false, err
	}
	btype, err := d.br.readBits(2)
	if err != nil {
		return false, err
	}

	switch btype {
	case 0: // stored
		d.br.alignByte()
		lenLo, _ := d.br.readByteRaw()
		lenHi, _ := d.br.readByteRaw()
		_, _ = d.br.readByteRaw() // ~len low
		_, _ = d.br.readByteRaw() // ~len high
		n := int(lenLo) | int(lenHi)<<8
		for i := 0; i < n; i++ {
			b, err := d.br.readByteRaw()
			if err != nil {
				return false, err
			}
			d.emit(b)
		}
	case 1: // fixed Huffman
		lit, dist := fixedHuffmanTables()
		if err := d.inflateHuffman(lit, dist); err != nil {
			return false, err
		}
	case 2: // dynamic Huffman
		lit, dist, err := d.readDynamicTables()
		if err != nil {
			return false, err
		}
		if err := d.inflateHuffman(lit, dist); err != nil {
			return false, err
		}
	default:
		return false, errors.New("deflate64: invalid block type")
	}

	return final == 1, nil
}

// deflate64LengthBase/Extra extend RFC 1951's table: code 285 carries a 16-bit extra field spanning lengths
// 3..65538 instead of being fixed at 258 (APPNOTE's Deflate64 note).
var deflate64LengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 3}
var deflate64LengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 16}

// deflate64DistBase/Extra add codes 30-31 reaching the 64 KiB window (APPNOTE's Deflate64 note).
var deflate64DistBase = [32]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577, 32769, 49153}
var deflate64DistExtra = [32]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14}

func (d *deflate64) inflateHuffman(lit, dist *huffmanTree) error {
	for {
		sym, err := lit.decode(d.br)
		if err != nil {
			return err
		}
		if sym < 256 {
			d.emit(byte(sym))
			continue
		}
		if sym == 256 {
			return nil // end of block
		}

		idx := sym - 257
		if idx >= len(deflate64LengthBase) {
			return errors.New("deflate64: invalid length code")
		}
		extra, err := d.br.readBits(deflate64LengthExtra[idx])
		if err != nil {
			return err
		}
		length := deflate64LengthBase[idx] + int(extra)

		dsym, err := dist.decode(d.br)
		if err != nil {
			return err
		}
		if int(dsym) >= len(deflate64DistBase) {
			return errors.New("deflate64: invalid distance code")
		}
		dextra, err := d.br.readBits(deflate64DistExtra[dsym])
		if err != nil {
			return err
		}
		distance := deflate64DistBase[dsym] + int(dextra)

		if err := d.copyMatch(length, distance); err != nil {
			return err
		}
	}
}

func (d *deflate64) readDynamicTables() (*huffmanTree, *huffmanTree, error) {
	hlit, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := d.br.readBits(4)
	if err != nil {
		return nil, nil, err
	}

	nlit := int(hlit) + 257
	ndist := int(hdist) + 1
	nclen := int(hclen) + 4

	order := []int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
	clLengths := make([]int, 19)
	for i := 0; i < nclen; i++ {
		v, err := d.br.readBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[order[i]] = int(v)
	}

	clTree, err := newHuffmanTree(clLengths)
	if err != nil {
		return nil, nil, err
	}

	lengths := make([]int, nlit+ndist)
	for i := 0; i < len(lengths); {
		sym, err := clTree.decode(d.br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			lengths[i] = int(sym)
			i++
		case sym == 16:
			n, err := d.br.readBits(2)
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				return nil, nil, errors.New("deflate64: repeat with no previous length")
			}
			prev := lengths[i-1]
			repeat := int(n) + 3
			if i+repeat > len(lengths) {
				return nil, nil, fmt.Errorf("deflate64: code length repeat overruns table (at %d, repeat %d, table %d)", i, repeat, len(lengths))
			}
			for c := 0; c < repeat; c++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			n, err := d.br.readBits(3)
			if err != nil {
				return nil, nil, err
			}
			i += int(n) + 3
		case sym == 18:
			n, err := d.br.readBits(7)
			if err != nil {
				return nil, nil, err
			}
			i += int(n) + 11
		default:
			return nil, nil, errors.New("deflate64: invalid code length symbol")
		}
	}

	litTree, err := newHuffmanTree(lengths[:nlit])
	if err != nil {
		return nil, nil, err
	}
	distTree, err := newHuffmanTree(lengths[nlit:])
	if err != nil {
		return nil, nil, err
	}

	return litTree, distTree, nil
}
