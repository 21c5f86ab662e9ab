// Command jsondbck checks collection files written by jsondb. Each file must
// hold a single array of objects; with --pk, every object must also carry a
// unique, non-null primary key.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andreyvit/jsondb"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := mainImpl(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "jsondbck: %v\n", err)
		}
		os.Exit(1)
	}
}

func mainImpl(args []string, stdout, stderr io.Writer) error {
	fset := flag.NewFlagSet("jsondbck", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintf(stderr, "usage: jsondbck [flags] FILE...\n")
		fset.PrintDefaults()
	}
	pk := fset.String("pk", "", "primary-key field that must be present and unique")
	lenient := fset.Bool("lenient", false, "accept comments and trailing commas")
	useMsgPack := fset.Bool("msgpack", false, "files are MessagePack-encoded")
	boltPath := fset.String("bolt", "", "read files from this Bolt database instead of the file system")
	verbose := fset.BoolP("verbose", "v", false, "log details for every file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	files := fset.Args()
	if len(files) == 0 {
		fset.Usage()
		return errors.New("no files given")
	}

	logger := newLogger(stderr, *verbose)

	var st jsondb.Storage = jsondb.OSStorage{}
	if *boltPath != "" {
		bst, err := jsondb.OpenBoltStorage(*boltPath)
		if err != nil {
			return fmt.Errorf("%s: %w", *boltPath, err)
		}
		defer bst.Close()
		st = bst
	}
	enc := jsondb.JSON
	if *useMsgPack {
		enc = jsondb.MsgPack
	}

	var failed int
	for _, path := range files {
		rep, err := checkFile(st, path, enc, *lenient, *pk)
		if err != nil {
			failed++
			logger.Error("check failed", "path", path, "err", err)
			continue
		}
		fmt.Fprintf(stdout, "%s: ok, %d records\n", path, rep.Records)
		logger.Debug("checked", "path", path, "records", rep.Records, "keys", rep.Keys, "bytes", rep.Size)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

type report struct {
	Records int
	Keys    int
	Size    int
}

func checkFile(st jsondb.Storage, path string, enc jsondb.Encoding, lenient bool, pk string) (report, error) {
	var rep report
	data, err := st.ReadFile(path)
	if err != nil {
		return rep, err
	}
	rep.Size = len(data)
	items, err := jsondb.ParseRecords(data, enc, lenient)
	if err != nil {
		return rep, err
	}
	rep.Records = len(items)

	seen := make(map[string]int)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return rep, fmt.Errorf("[%d]: record is not an object", i)
		}
		if pk == "" {
			continue
		}
		v := obj[pk]
		if v == nil {
			return rep, fmt.Errorf("[%d]: missing primary key %q", i, pk)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return rep, fmt.Errorf("[%d]: %w", i, err)
		}
		key := string(raw)
		if prev, dup := seen[key]; dup {
			return rep, fmt.Errorf("[%d]: primary key %s repeats record %d", i, key, prev)
		}
		seen[key] = i
	}
	rep.Keys = len(seen)
	return rep, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}
