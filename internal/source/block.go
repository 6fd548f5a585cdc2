package source

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BlockSource wraps an Archive with a block-aligned LRU cache (spec §4.1 "Internal block cache of size B"), so a
// DirectoryIterator walk and the driver's local-header reads over the same region don't re-issue I/O against a
// remote backend such as S3.
type BlockSource struct {
	backing   Archive
	blockSize int
	cache     *lru.Cache[int64, []byte]
}

// NewBlockSource wraps backing with a cache of blockSize-aligned blocks, keeping at most maxBlocks of them. Pass
// zero for blockSize to use DefaultBlockSize.
func NewBlockSource(backing Archive, blockSize, maxBlocks int) (*BlockSource, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if maxBlocks <= 0 {
		maxBlocks = 64
	}

	cache, err := lru.New[int64, []byte](maxBlocks)
	if err != nil {
		return nil, fmt.Errorf("create block cache error: %w", err)
	}

	return &BlockSource{backing: backing, blockSize: blockSize, cache: cache}, nil
}

func (b *BlockSource) Size() int64 { return b.backing.Size() }

// ReadAt fills p from one or more cached blocks, fetching any missing block from the backing Archive.
func (b *BlockSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off+int64(len(p)) > b.backing.Size() {
		return 0, fmt.Errorf("%w: offset %d length %d exceeds size %d", ErrShortRead, off, len(p), b.backing.Size())
	}

	total := 0
	for total < len(p) {
		cur := off + int64(total)
		blockIdx := cur / int64(b.blockSize)
		blockStart := blockIdx * int64(b.blockSize)

		block, ok := b.cache.Get(blockIdx)
		if !ok {
			blockLen := b.blockSize
			if remaining := b.backing.Size() - blockStart; remaining < int64(blockLen) {
				blockLen = int(remaining)
			}
			block = make([]byte, blockLen)
			if _, err := b.backing.ReadAt(block, blockStart); err != nil {
				return total, err
			}
			b.cache.Add(blockIdx, block)
		}

		withinBlock := int(cur - blockStart)
		n := copy(p[total:], block[withinBlock:])
		if n == 0 {
			break
		}
		total += n
	}

	return total, nil
}
