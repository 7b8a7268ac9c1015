package store

// handle addresses one record slot: block*blockSize + offset.
type handle int32

// block is a fixed-capacity chunk of record slots. Items of slot i occupy
// items[i*width : (i+1)*width].
type block struct {
	values []float32
	seqs   []uint64
	items  []int16
}

// arena hands out record slots from a growing list of blocks. Blocks are only
// released when the whole arena is dropped.
type arena struct {
	blockSize int
	width     int
	blocks    []*block
	free      []handle
}

func newArena(blockSize, width int) *arena {
	return &arena{blockSize: blockSize, width: width}
}

func (a *arena) grow() {
	b := &block{
		values: make([]float32, a.blockSize),
		seqs:   make([]uint64, a.blockSize),
		items:  make([]int16, a.blockSize*a.width),
	}
	base := handle(len(a.blocks) * a.blockSize)
	a.blocks = append(a.blocks, b)
	// hand out low offsets first
	for i := a.blockSize - 1; i >= 0; i-- {
		a.free = append(a.free, base+handle(i))
	}
}

// alloc returns a free slot, adding a block when none is left.
func (a *arena) alloc() handle {
	if len(a.free) == 0 {
		a.grow()
	}
	h := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return h
}

func (a *arena) release(h handle) {
	a.free = append(a.free, h)
}

func (a *arena) locate(h handle) (*block, int) {
	return a.blocks[int(h)/a.blockSize], int(h) % a.blockSize
}

func (a *arena) write(h handle, value float32, seq uint64, items []int) {
	b, off := a.locate(h)
	b.values[off] = value
	b.seqs[off] = seq
	row := b.items[off*a.width : (off+1)*a.width]
	for j, item := range items {
		row[j] = int16(item)
	}
}

func (a *arena) items(h handle) []int16 {
	b, off := a.locate(h)
	return b.items[off*a.width : (off+1)*a.width]
}

// allocated returns the total number of slots across all blocks.
func (a *arena) allocated() int {
	return len(a.blocks) * a.blockSize
}
