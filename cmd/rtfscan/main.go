// rtfscan extracts embedded objects from RTF files and reports what it
// finds. It is the reference embedding of the rtfkit extractor: a real
// scan engine supplies its own dispatcher in place of reportDispatcher.
package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wudi/rtfkit/config"
	"github.com/wudi/rtfkit/observability"
	"github.com/wudi/rtfkit/rtf"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	keep := flag.Bool("keep", false, "keep extracted temp files")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rtfscan [-config file] [-keep] [-v] file...")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if *keep {
		cfg.KeepTemp = true
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	opts := cfg.ExtractorOptions(os.Stderr)
	extractor := rtf.New(&reportDispatcher{logger: opts.Logger}, opts)

	exit := 0
	for _, path := range flag.Args() {
		if err := scanOne(extractor, path); err != nil {
			fmt.Fprintf(os.Stderr, "rtfscan: %s: %v\n", path, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func scanOne(extractor *rtf.Extractor, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return extractor.Scan(context.Background(), f)
}

// reportDispatcher logs each extracted object instead of scanning it.
type reportDispatcher struct {
	logger observability.Logger
}

func (d *reportDispatcher) ScanOLE10Native(ctx context.Context, f *os.File) error {
	var size [4]byte
	if _, err := io.ReadFull(f, size[:]); err != nil {
		d.logger.Info("extracted ole10native object (truncated header)")
		return nil
	}
	d.logger.Info("extracted ole10native object",
		observability.Uint32("size", binary.LittleEndian.Uint32(size[:])),
		observability.String("preview", preview(f)))
	return nil
}

func (d *reportDispatcher) ScanFile(ctx context.Context, f *os.File, path string) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	d.logger.Info("extracted object",
		observability.Int64("size", st.Size()),
		observability.String("path", path),
		observability.String("preview", preview(f)))
	return nil
}

func preview(f *os.File) string {
	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	return hex.EncodeToString(buf[:n])
}
