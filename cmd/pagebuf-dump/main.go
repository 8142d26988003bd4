// Command pagebuf-dump is a small demo binary: it writes a file's contents
// into a heap Buffer in fixed-size chunks, then reports the resulting page
// layout and walks the data back out line by line with a LineReader.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orizon-lang/pagebuf/buffer"
	"github.com/orizon-lang/pagebuf/reader"
)

func main() {
	var (
		in       string
		pageSize int
	)
	flag.StringVar(&in, "in", "", "input file to load into a Buffer")
	flag.IntVar(&pageSize, "page-size", 4096, "Buffer page size (0=unbounded, one page per write)")
	flag.Parse()

	if in == "" {
		log.Fatal("pagebuf-dump: --in is required")
	}

	data, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("pagebuf-dump: read %s: %v", in, err)
	}

	b := buffer.NewWithStrategy(buffer.NewStrategy(buffer.WithPageSize(pageSize)))
	if n := b.WriteData(data); n != len(data) {
		log.Fatalf("pagebuf-dump: short write: wrote %d of %d bytes", n, len(data))
	}

	dumpPages(b)
	dumpLines(b)
}

func dumpPages(b buffer.Buffer) {
	fmt.Printf("data_size=%d data_revision=%d\n", b.DataSize(), b.DataRevision())
	i := 0
	for it := b.Iterator(); !it.IsEnd(); it = it.Next() {
		fmt.Printf("  page[%d] len=%d\n", i, len(it.Bytes()))
		i++
	}
}

func dumpLines(b buffer.Buffer) {
	lr := reader.NewLineReader(b)
	n := 0
	for b.DataSize() > 0 {
		lr.TerminateLine() // treat a trailing unterminated tail as a final line
		if !lr.HasLine() {
			break
		}
		line := make([]byte, lr.GetLineLen())
		lr.GetLineData(line)
		fmt.Printf("  line[%d]: %q\n", n, line)
		n++
		if lr.SeekLine() == 0 {
			break
		}
	}
}
