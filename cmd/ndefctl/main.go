package main

import (
	"fmt"
	"os"

	"github.com/danmuck/ndefsync/internal/logging"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/docopt/docopt-go"
)

const NdefCtlVersion = "0.1.0"

func main() {
	usage := `NDEF tag tool.

Dumps tag images and NDEF messages, and places tags on virtual readers
(a reader is a directory holding terminal.toml).

Usage:
    ndefctl dump <file> [--raw] [--format=<format>]
    ndefctl tag uri <reader_dir> <uri>
    ndefctl tag text <reader_dir> <text> [--locale=<locale>]
    ndefctl tag blank <reader_dir>
    ndefctl tag remove <reader_dir>

Options:
    -h --help            Show this screen.
    --version            Show version.
    --raw                <file> is a bare NDEF message, not a tag image.
    --format=<format>    text, json or yaml [default: text].
    --locale=<locale>    Text record locale [default: en].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], NdefCtlVersion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ndefctl: %v\n", err)
		os.Exit(2)
	}
	logging.ConfigureCLI()

	if err := dispatch(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ndefctl: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(opts docopt.Opts) error {
	if dump_, _ := opts.Bool("dump"); dump_ {
		path, _ := opts.String("<file>")
		raw, _ := opts.Bool("--raw")
		format, _ := opts.String("--format")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return dump(os.Stdout, data, raw, format)
	}

	dir, _ := opts.String("<reader_dir>")
	if uri_, _ := opts.Bool("uri"); uri_ {
		uri, _ := opts.String("<uri>")
		return placeRecords(dir, []ndef.Record{&ndef.URI{URI: uri}})
	} else if text_, _ := opts.Bool("text"); text_ {
		text, _ := opts.String("<text>")
		locale, _ := opts.String("--locale")
		return placeRecords(dir, []ndef.Record{&ndef.Text{Text: text, Locale: locale, Encoding: ndef.EncodingUTF8}})
	} else if blank_, _ := opts.Bool("blank"); blank_ {
		return placeBlank(dir)
	} else if remove_, _ := opts.Bool("remove"); remove_ {
		return removeTag(dir)
	}
	return fmt.Errorf("no command")
}
