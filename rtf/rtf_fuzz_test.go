package rtf

import (
	"bytes"
	"context"
	"os"
	"testing"
)

type nopDispatcher struct{}

func (nopDispatcher) ScanOLE10Native(ctx context.Context, f *os.File) error { return nil }
func (nopDispatcher) ScanFile(ctx context.Context, f *os.File, path string) error {
	return nil
}

func FuzzScan(f *testing.F) {
	f.Add([]byte(`{\rtf1 hello}`))
	f.Add([]byte(`{\object\objdata 0105000002000000}`))
	f.Add([]byte(`}}}}{{{{`))
	f.Add([]byte(`\\\'ff\bin100 {`))
	f.Add([]byte(`{\object\objdata ` + objectHex("x", []byte{0xd0, 0xcf}) + `}`))
	f.Add([]byte{0x00, 0x01, 0x02, '{', '\\'})

	f.Fuzz(func(t *testing.T, data []byte) {
		root := t.TempDir()
		e := New(nopDispatcher{}, Options{TempDir: root})
		e.Scan(context.Background(), bytes.NewReader(data))

		// Whatever the input, nothing may survive under the temp root.
		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("read temp root: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("temp artefacts leaked: %v", entries)
		}
	})
}
