package writeback

type block struct {
	tag     uint64
	isValid bool
	isDirty bool
	data    []byte
}

// directory is a direct-mapped set of blocks. The tag of a block is the
// address of the first byte it caches.
type directory struct {
	log2BlockSize uint64
	blocks        []*block
}

func newDirectory(numBlocks int, log2BlockSize uint64) *directory {
	d := &directory{log2BlockSize: log2BlockSize}

	d.blocks = make([]*block, numBlocks)
	for i := range d.blocks {
		d.blocks[i] = &block{data: make([]byte, d.blockSize())}
	}

	return d
}

func (d *directory) blockSize() uint64 {
	return 1 << d.log2BlockSize
}

func (d *directory) alignedAddr(addr uint64) uint64 {
	return addr >> d.log2BlockSize << d.log2BlockSize
}

// lookup returns the block an address maps to, and whether that block holds
// the address.
func (d *directory) lookup(addr uint64) (*block, bool) {
	index := (addr >> d.log2BlockSize) % uint64(len(d.blocks))
	b := d.blocks[index]

	return b, b.isValid && b.tag == d.alignedAddr(addr)
}

func (d *directory) dirtyBlocks() []*block {
	var dirty []*block

	for _, b := range d.blocks {
		if b.isValid && b.isDirty {
			dirty = append(dirty, b)
		}
	}

	return dirty
}

func (d *directory) reset() {
	for _, b := range d.blocks {
		b.isValid = false
		b.isDirty = false
	}
}
