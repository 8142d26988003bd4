package mmapbuf

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateInvalidActions(t *testing.T) {
	dir := t.TempDir()
	if _, err := Create(filepath.Join(dir, "x"), OpenAction(99), CloseRetain); err != ErrInvalidOpenAction {
		t.Fatalf("got err %v, want ErrInvalidOpenAction", err)
	}
	if _, err := Create(filepath.Join(dir, "x"), OpenOverwrite, CloseAction(99)); err != ErrInvalidCloseAction {
		t.Fatalf("got err %v, want ErrInvalidCloseAction", err)
	}
}

func TestWriteDataAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	buf, err := Create(path, OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	payload := make([]byte, 10*1024)
	rand.New(rand.NewSource(1)).Read(payload)

	n := buf.WriteData(payload)
	if n != len(payload) {
		t.Fatalf("WriteData returned %d, want %d", n, len(payload))
	}
	if got := buf.DataSize(); got != len(payload) {
		t.Fatalf("DataSize()=%d, want %d", got, len(payload))
	}

	var out []byte
	for it := buf.Iterator(); !it.IsEnd(); it = it.Next() {
		out = append(out, it.Bytes()...)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("iterated bytes mismatch")
	}

	buf.Destroy()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", path, err)
	}
}

func TestWriteSpanningMultipleGranules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	buf, err := Create(path, OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer buf.Destroy()

	payload := make([]byte, MapGranule*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	if n := buf.WriteData(payload); n != len(payload) {
		t.Fatalf("WriteData returned %d, want %d", n, len(payload))
	}

	var out []byte
	for it := buf.Iterator(); !it.IsEnd(); it = it.Next() {
		out = append(out, it.Bytes()...)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("multi-granule read mismatch: got %d bytes, want %d", len(out), len(payload))
	}
}

func TestSeekPurgesAndRematerializes(t *testing.T) {
	dir := t.TempDir()
	buf, err := Create(filepath.Join(dir, "data.bin"), OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer buf.Destroy()

	payload := bytes.Repeat([]byte("abcd"), 2048)
	buf.WriteData(payload)

	rev0 := buf.DataRevision()
	n := buf.Seek(100)
	if n != 100 {
		t.Fatalf("Seek returned %d, want 100", n)
	}
	if buf.DataRevision() == rev0 {
		t.Fatalf("Seek did not bump data_revision")
	}
	if got := buf.DataSize(); got != len(payload)-100 {
		t.Fatalf("DataSize()=%d, want %d", got, len(payload)-100)
	}

	var out []byte
	for it := buf.Iterator(); !it.IsEnd(); it = it.Next() {
		out = append(out, it.Bytes()...)
	}
	if !bytes.Equal(out, payload[100:]) {
		t.Fatalf("post-seek content mismatch")
	}
}

func TestTrimShrinksFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	buf, err := Create(path, OpenOverwrite, CloseRetain)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	payload := bytes.Repeat([]byte{0xAB}, 4096)
	buf.WriteData(payload)

	if n := buf.Trim(1000); n != 1000 {
		t.Fatalf("Trim returned %d, want 1000", n)
	}
	if got := buf.DataSize(); got != 3096 {
		t.Fatalf("DataSize()=%d, want 3096", got)
	}
	buf.Destroy()

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size() != 3096 {
		t.Fatalf("file size=%d, want 3096", st.Size())
	}
}

func TestRewindGrowsVisibleHead(t *testing.T) {
	dir := t.TempDir()
	buf, err := Create(filepath.Join(dir, "data.bin"), OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer buf.Destroy()

	buf.WriteData([]byte("0123456789"))
	buf.Seek(5)
	if got := buf.DataSize(); got != 5 {
		t.Fatalf("DataSize()=%d, want 5", got)
	}
	buf.Rewind(5)
	if got := buf.DataSize(); got != 10 {
		t.Fatalf("DataSize()=%d after rewind, want 10", got)
	}
}

func TestInsertRejected(t *testing.T) {
	dir := t.TempDir()
	buf, err := Create(filepath.Join(dir, "data.bin"), OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer buf.Destroy()

	buf.WriteData([]byte("hello"))
	_, n := buf.InsertData(buf.Iterator(), 0, []byte("x"))
	if n != 0 {
		t.Fatalf("InsertData on mmap Buffer returned %d, want 0 (rejected)", n)
	}
}

func TestWriteBufferBetweenMmapBuffers(t *testing.T) {
	dir := t.TempDir()
	src, err := Create(filepath.Join(dir, "src.bin"), OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create src: %v", err)
	}
	defer src.Destroy()
	dst, err := Create(filepath.Join(dir, "dst.bin"), OpenOverwrite, CloseRemove)
	if err != nil {
		t.Fatalf("Create dst: %v", err)
	}
	defer dst.Destroy()

	payload := bytes.Repeat([]byte("xyz"), 1000)
	src.WriteData(payload)

	n := dst.WriteBuffer(src, len(payload))
	if n != len(payload) {
		t.Fatalf("WriteBuffer returned %d, want %d", n, len(payload))
	}
	var out []byte
	for it := dst.Iterator(); !it.IsEnd(); it = it.Next() {
		out = append(out, it.Bytes()...)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("cross-buffer mmap write mismatch")
	}
}

func TestCloseActionRetain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.bin")
	buf, err := Create(path, OpenOverwrite, CloseRetain)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	buf.WriteData([]byte("keep me"))
	buf.Destroy()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s retained, stat err=%v", path, err)
	}
}
