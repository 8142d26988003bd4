package buffer

import (
	"bytes"
	"testing"

	"github.com/orizon-lang/pagebuf/alloc"
)

func collect(b Buffer) []byte {
	var out []byte
	for it := b.Iterator(); !it.IsEnd(); it = it.Next() {
		out = append(out, it.Bytes()...)
	}
	return out
}

func TestBasicFIFO(t *testing.T) {
	b := New()
	if n := b.WriteData([]byte("hello ")); n != 6 {
		t.Fatalf("WriteData returned %d, want 6", n)
	}
	if n := b.WriteData([]byte("world")); n != 5 {
		t.Fatalf("WriteData returned %d, want 5", n)
	}
	if got := b.DataSize(); got != 11 {
		t.Fatalf("DataSize()=%d, want 11", got)
	}
	if got := string(collect(b)); got != "hello world" {
		t.Fatalf("collect()=%q, want %q", got, "hello world")
	}

	n := b.Seek(6)
	if n != 6 {
		t.Fatalf("Seek returned %d, want 6", n)
	}
	if got := string(collect(b)); got != "world" {
		t.Fatalf("post-seek collect()=%q, want %q", got, "world")
	}
}

func TestFragmentedWrite(t *testing.T) {
	b := NewWithStrategy(NewStrategy(WithPageSize(4)))
	payload := []byte("0123456789")
	if n := b.WriteData(payload); n != len(payload) {
		t.Fatalf("WriteData returned %d, want %d", n, len(payload))
	}
	var fragments int
	for it := b.Iterator(); !it.IsEnd(); it = it.Next() {
		fragments++
		if it.Len() > 4 {
			t.Fatalf("fragment length %d exceeds PageSize 4", it.Len())
		}
	}
	if fragments != 3 {
		t.Fatalf("fragments=%d, want 3 (4+4+2)", fragments)
	}
	if !bytes.Equal(collect(b), payload) {
		t.Fatalf("fragmented content mismatch")
	}
}

func TestZeroCopyCrossBufferWrite(t *testing.T) {
	src := New()
	src.WriteData([]byte("shared payload"))

	dst := New()
	n := dst.WriteBuffer(src, 14)
	if n != 14 {
		t.Fatalf("WriteBuffer returned %d, want 14", n)
	}

	srcIt := src.Iterator()
	dstIt := dst.Iterator()
	if !bytes.Equal(srcIt.Bytes(), dstIt.Bytes()) {
		t.Fatalf("expected src and dst windows to show identical bytes")
	}
	if srcIt.node.Region != dstIt.node.Region {
		t.Fatalf("expected src and dst Pages to share one Region (zero-copy), got distinct Regions")
	}
	if got := srcIt.node.Region.RefCount(); got != 2 {
		t.Fatalf("shared Region refcount=%d, want 2", got)
	}

	// Overwriting dst must copy-on-write rather than mutate the Region
	// src still shares a reference to.
	dst.OverwriteData([]byte("x"))
	if got := srcIt.Bytes()[0]; got == 'x' {
		t.Fatalf("dst's overwrite leaked into src's shared Region")
	}
}

func TestInsertAtSplit(t *testing.T) {
	b := New()
	b.WriteData([]byte("helloworld"))

	it := b.Iterator()
	_, n := b.InsertData(it, 5, []byte("-"))
	if n != 1 {
		t.Fatalf("InsertData returned %d, want 1", n)
	}
	if got := string(collect(b)); got != "hello-world" {
		t.Fatalf("collect()=%q, want %q", got, "hello-world")
	}
}

func TestInsertAtPageBoundaries(t *testing.T) {
	b := New()
	b.WriteData([]byte("AAAA"))
	b.WriteData([]byte("BBBB"))

	first := b.Iterator()
	if _, n := b.InsertData(first, 0, []byte("X")); n != 1 {
		t.Fatalf("insert-before returned wrong count")
	}
	if got := string(collect(b)); got != "XAAAABBBB" {
		t.Fatalf("collect()=%q, want %q", got, "XAAAABBBB")
	}

	end := b.EndIterator()
	if _, n := b.InsertData(end, 0, []byte("Y")); n != 1 {
		t.Fatalf("insert-at-end returned wrong count")
	}
	if got := string(collect(b)); got != "XAAAABBBBY" {
		t.Fatalf("collect()=%q, want %q", got, "XAAAABBBBY")
	}
}

func TestRewindPrependsOrdered(t *testing.T) {
	b := NewWithStrategy(NewStrategy(WithPageSize(3)))
	b.WriteData([]byte("ZZZ"))
	n := b.Rewind(7)
	if n != 7 {
		t.Fatalf("Rewind returned %d, want 7", n)
	}
	out := collect(b)
	if len(out) != 10 || string(out[7:]) != "ZZZ" {
		t.Fatalf("collect()=%q, want 7 arbitrary bytes then ZZZ", out)
	}
}

func TestTrimFromTail(t *testing.T) {
	b := New()
	b.WriteData([]byte("abcdefgh"))
	n := b.Trim(3)
	if n != 3 {
		t.Fatalf("Trim returned %d, want 3", n)
	}
	if got := string(collect(b)); got != "abcde" {
		t.Fatalf("collect()=%q, want %q", got, "abcde")
	}
}

func TestReadDataDoesNotConsume(t *testing.T) {
	b := New()
	b.WriteData([]byte("readme"))
	buf := make([]byte, 4)
	n := b.ReadData(buf)
	if n != 4 || string(buf) != "read" {
		t.Fatalf("ReadData returned (%d,%q), want (4,\"read\")", n, buf)
	}
	if got := b.DataSize(); got != 6 {
		t.Fatalf("ReadData must not consume: DataSize()=%d, want 6", got)
	}
}

func TestInsertDataRefNoCopy(t *testing.T) {
	b := New()
	b.WriteData([]byte("AB"))
	ext := []byte("EXT")
	_, n := b.InsertDataRef(b.EndIterator(), 0, ext)
	if n != 3 {
		t.Fatalf("InsertDataRef returned %d, want 3", n)
	}
	ext[0] = 'Z'
	if got := string(collect(b)); got != "ABZXT" {
		t.Fatalf("collect()=%q, want %q (referenced bytes observed live mutation)", got, "ABZXT")
	}
}

func TestRejectsStrategy(t *testing.T) {
	b := NewWithStrategy(NewStrategy(WithRejectsWrite(true)))
	if n := b.WriteData([]byte("nope")); n != 0 {
		t.Fatalf("WriteData on RejectsWrite Buffer returned %d, want 0", n)
	}
	if got := b.DataSize(); got != 0 {
		t.Fatalf("DataSize()=%d, want 0", got)
	}
}

func TestDataRevisionSemantics(t *testing.T) {
	b := New()
	rev0 := b.DataRevision()
	b.WriteData([]byte("abc"))
	if b.DataRevision() != rev0 {
		t.Fatalf("append bumped data_revision, want unchanged")
	}
	b.Seek(1)
	if b.DataRevision() == rev0 {
		t.Fatalf("Seek did not bump data_revision")
	}
}

func TestAllocFailStopsPartway(t *testing.T) {
	fa := &failAfter{n: 1}
	b := NewWithStrategyAndAllocator(NewStrategy(WithPageSize(3)), fa)
	n := b.WriteData([]byte("0123456789"))
	if n <= 0 || n >= 10 {
		t.Fatalf("WriteData with AllocFail returned %d, want partial success strictly between 0 and 10", n)
	}
}

// failAfter is an Allocator that succeeds n times then always fails,
// exercising the AllocFail partial-success contract.
type failAfter struct {
	n     int
	calls int
}

func (f *failAfter) Alloc(kind alloc.Kind, size int) []byte {
	if f.calls >= f.n {
		return nil
	}
	f.calls++
	return make([]byte, size)
}

func (f *failAfter) Free(kind alloc.Kind, buf []byte) {}

func TestClearReleasesAll(t *testing.T) {
	b := New()
	b.WriteData([]byte("data"))
	b.Clear()
	if got := b.DataSize(); got != 0 {
		t.Fatalf("DataSize() after Clear()=%d, want 0", got)
	}
	if !b.(*Core).Empty() {
		t.Fatalf("Core not empty after Clear()")
	}
}
