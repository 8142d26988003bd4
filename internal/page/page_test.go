package page

import (
	"testing"

	"github.com/orizon-lang/pagebuf/alloc"
	"github.com/orizon-lang/pagebuf/internal/region"
)

func TestPageWindowInvariant(t *testing.T) {
	a := alloc.NewTrivial()
	r := region.New(a, 10)
	copy(r.Bytes(), []byte("abcdefghij"))

	p := NewWindow(r, 2, 5)
	if p.Base() != 2 || p.Len() != 5 {
		t.Fatalf("got base=%d len=%d, want base=2 len=5", p.Base(), p.Len())
	}
	if string(p.Bytes()) != "cdefg" {
		t.Fatalf("got %q, want %q", p.Bytes(), "cdefg")
	}
	if r.RefCount() != 2 {
		t.Fatalf("region refcount = %d, want 2 (page holds one on top of the test's)", r.RefCount())
	}
	p.Destroy()
	if r.RefCount() != 1 {
		t.Fatalf("region refcount after Destroy = %d, want 1", r.RefCount())
	}
}

func TestPageTransferSharesRegion(t *testing.T) {
	a := alloc.NewTrivial()
	r := region.New(a, 10)
	copy(r.Bytes(), []byte("0123456789"))

	src := NewWindow(r, 0, 10)
	mid := Transfer(src, 3, 4) // window [3,7) -> "3456"
	if string(mid.Bytes()) != "3456" {
		t.Fatalf("got %q, want %q", mid.Bytes(), "3456")
	}
	if r.RefCount() != 3 {
		t.Fatalf("refcount = %d, want 3 (test + src + mid)", r.RefCount())
	}
	// mutating through one window is visible through the other: true sharing.
	mid.Bytes()[0] = 'X'
	if src.Bytes()[3] != 'X' {
		t.Fatal("transferred page does not share underlying storage with source")
	}
}

func TestPageAdvanceAndShrink(t *testing.T) {
	a := alloc.NewTrivial()
	r := region.New(a, 10)
	copy(r.Bytes(), []byte("0123456789"))
	p := NewWindow(r, 0, 10)

	p.AdvanceHead(3)
	if p.Base() != 3 || p.Len() != 7 {
		t.Fatalf("after AdvanceHead(3): base=%d len=%d", p.Base(), p.Len())
	}
	if string(p.Bytes()) != "3456789" {
		t.Fatalf("got %q", p.Bytes())
	}

	p.ShrinkTail(2)
	if p.Len() != 5 || string(p.Bytes()) != "34567" {
		t.Fatalf("after ShrinkTail(2): len=%d bytes=%q", p.Len(), p.Bytes())
	}
}

func TestPageListLinking(t *testing.T) {
	a := alloc.NewTrivial()
	r := region.New(a, 4)
	sentinel := &Page{}
	sentinel.Next = sentinel
	sentinel.Prev = sentinel

	p1 := NewWindow(r, 0, 2)
	p1.InsertBefore(sentinel)
	p2 := NewWindow(r, 2, 2)
	p2.InsertBefore(sentinel)

	if sentinel.Next != p1 || p1.Next != p2 || p2.Next != sentinel {
		t.Fatal("forward links broken")
	}
	if sentinel.Prev != p2 || p2.Prev != p1 || p1.Prev != sentinel {
		t.Fatal("backward links broken")
	}

	p1.Unlink()
	if sentinel.Next != p2 || p2.Prev != sentinel {
		t.Fatal("unlink did not relink neighbours")
	}
}
