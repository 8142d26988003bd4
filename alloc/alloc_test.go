package alloc

import "testing"

func TestTrivialAllocator(t *testing.T) {
	a := NewTrivial()

	t.Run("BasicAllocation", func(t *testing.T) {
		buf := a.Alloc(KindRegion, 1024)
		if buf == nil {
			t.Fatal("allocation failed")
		}
		if len(buf) != 1024 {
			t.Fatalf("got len %d, want 1024", len(buf))
		}
		for i := range buf {
			buf[i] = byte(i)
		}
		a.Free(KindRegion, buf)
	})

	t.Run("ZeroSize", func(t *testing.T) {
		if buf := a.Alloc(KindRegion, 0); buf != nil {
			t.Error("zero-size allocation should return nil")
		}
		if buf := a.Alloc(KindStruct, -1); buf != nil {
			t.Error("negative-size allocation should return nil")
		}
	})

	t.Run("StructFreeZeroesMemory", func(t *testing.T) {
		buf := a.Alloc(KindStruct, 16)
		for i := range buf {
			buf[i] = 0xFF
		}
		a.Free(KindStruct, buf)
		for i, b := range buf {
			if b != 0 {
				t.Fatalf("byte %d not zeroed after Free: %x", i, b)
			}
		}
	})
}

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{KindStruct, "struct"},
		{KindRegion, "region"},
		{Kind(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Errorf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}
