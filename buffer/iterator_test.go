package buffer

import "testing"

func TestPageIteratorEquality(t *testing.T) {
	b := New()
	b.WriteData([]byte("ab"))
	b.WriteData([]byte("cd"))

	it1 := b.Iterator()
	it2 := b.Iterator()
	if !it1.Equal(it2) {
		t.Fatalf("two Iterator() calls at the same Page should be Equal")
	}
	it3 := it1.Next()
	if it1.Equal(it3) {
		t.Fatalf("advanced iterator must not be Equal to its origin")
	}
	if it3.Next().IsEnd() == false {
		t.Fatalf("expected END after the second page")
	}
}

func TestPageIteratorForwardReverse(t *testing.T) {
	b := New()
	b.WriteData([]byte("one"))
	b.WriteData([]byte("two"))

	fwd := b.Iterator()
	var got []string
	for !fwd.IsEnd() {
		got = append(got, string(fwd.Bytes()))
		fwd = fwd.Next()
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("forward walk = %v, want [one two]", got)
	}

	rev := b.EndIterator()
	var back []string
	for {
		rev = rev.Prev()
		if rev.IsEnd() {
			break
		}
		back = append(back, string(rev.Bytes()))
	}
	if len(back) != 2 || back[0] != "two" || back[1] != "one" {
		t.Fatalf("reverse walk = %v, want [two one]", back)
	}
}

func TestByteIteratorCrossesPageBoundary(t *testing.T) {
	b := NewWithStrategy(NewStrategy(WithPageSize(2)))
	b.WriteData([]byte("abcdef"))

	var out []byte
	for bi := b.ByteIterator(); !bi.IsEnd(); bi = bi.Next() {
		c, ok := bi.Byte()
		if !ok {
			t.Fatalf("Byte() returned !ok before END")
		}
		out = append(out, c)
	}
	if string(out) != "abcdef" {
		t.Fatalf("ByteIterator walk = %q, want %q", out, "abcdef")
	}
}

func TestByteIteratorReverse(t *testing.T) {
	b := NewWithStrategy(NewStrategy(WithPageSize(2)))
	b.WriteData([]byte("abcdef"))

	bi := b.ByteIterator()
	for i := 0; i < 5; i++ {
		bi = bi.Next()
	}
	c, ok := bi.Byte()
	if !ok || c != 'f' {
		t.Fatalf("expected to land on 'f', got %q ok=%v", c, ok)
	}
	bi = bi.Prev()
	c, ok = bi.Byte()
	if !ok || c != 'e' {
		t.Fatalf("Prev() landed on %q, want 'e'", c)
	}
}

func TestEmptyBufferIteratorIsEnd(t *testing.T) {
	b := New()
	if !b.Iterator().IsEnd() {
		t.Fatalf("Iterator() on empty Buffer must be END")
	}
	if !b.ByteIterator().IsEnd() {
		t.Fatalf("ByteIterator() on empty Buffer must be END")
	}
}
