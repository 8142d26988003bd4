package alloc

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Pool is a size-classed pooling Allocator: Alloc buckets requests into the
// smallest bucket size that satisfies them and serves them from a
// sync.Pool, falling back to a fresh allocation for oversize requests.
// Adapted from the teacher's internal/allocator.OptimizedAllocator
// (size-classed sync.Pool buckets) and internal/runtime/asyncio.BytePool
// (bucket search via sort.Search), merged into a single Allocator so
// REGION-kind byte ranges can be recycled across Buffer churn instead of
// round-tripping through the garbage collector on every Seek/Trim/Clear.
type Pool struct {
	buckets []poolBucket
}

type poolBucket struct {
	size  int
	limit int64
	inuse int64
	pool  sync.Pool
}

// PoolConfig configures bucket sizes and retention.
type PoolConfig struct {
	// BucketSizes lists ascending capacities; NewPool sorts them anyway.
	BucketSizes []int
	// MaxPerBucket bounds recycling per bucket: while at least this many
	// buffers of a bucket are still in use after a Free, that Free drops
	// the buffer for the GC instead of returning it to the pool.
	MaxPerBucket int
}

// DefaultPoolConfig returns bucket sizes tuned for typical network read
// sizes, matching asyncio.DefaultBytePool's bucket list.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		BucketSizes:  []int{1024, 2048, 4096, 8192, 16384, 32768, 65536},
		MaxPerBucket: 1024,
	}
}

// NewPool creates a Pool with the given configuration.
func NewPool(cfg PoolConfig) *Pool {
	sizes := append([]int(nil), cfg.BucketSizes...)
	sort.Ints(sizes)
	buckets := make([]poolBucket, len(sizes))
	for i, sz := range sizes {
		size := sz
		buckets[i] = poolBucket{
			size:  size,
			limit: int64(cfg.MaxPerBucket),
			pool:  sync.Pool{New: func() any { return make([]byte, size) }},
		}
	}
	return &Pool{buckets: buckets}
}

// NewDefaultPool returns a Pool using DefaultPoolConfig.
func NewDefaultPool() *Pool { return NewPool(DefaultPoolConfig()) }

func (p *Pool) findBucket(n int) int {
	i := sort.Search(len(p.buckets), func(i int) bool { return p.buckets[i].size >= n })
	if i >= len(p.buckets) {
		return -1
	}
	return i
}

// Alloc implements Allocator. KindStruct allocations bypass the pool (they
// are typically small and short-lived bookkeeping slices) and are served
// by a zero-filled make(); KindRegion allocations that fit a bucket are
// served from that bucket, oversize ones fall back to a fresh allocation.
func (p *Pool) Alloc(kind Kind, size int) []byte {
	if size <= 0 {
		return nil
	}
	if kind == KindStruct {
		return make([]byte, size)
	}
	idx := p.findBucket(size)
	if idx < 0 {
		return make([]byte, size)
	}
	b := &p.buckets[idx]
	buf := b.pool.Get().([]byte)
	atomic.AddInt64(&b.inuse, 1)
	for i := range buf {
		buf[i] = 0
	}
	return buf[:size]
}

// Free implements Allocator, returning region buffers to their bucket when
// capacity matches a managed size and the retention limit is not exceeded.
func (p *Pool) Free(kind Kind, buf []byte) {
	if kind == KindStruct {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	capn := cap(buf)
	if capn == 0 {
		return
	}
	idx := p.findBucket(capn)
	if idx < 0 || p.buckets[idx].size != capn {
		return
	}
	b := &p.buckets[idx]
	if cur := atomic.AddInt64(&b.inuse, -1); cur >= b.limit {
		return
	}
	b.pool.Put(buf[:capn])
}

// Stats reports per-bucket in-use counts for diagnostics.
func (p *Pool) Stats() (sizes []int, inuse []int64) {
	sizes = make([]int, len(p.buckets))
	inuse = make([]int64, len(p.buckets))
	for i := range p.buckets {
		sizes[i] = p.buckets[i].size
		inuse[i] = atomic.LoadInt64(&p.buckets[i].inuse)
	}
	return
}
