package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danmuck/ndefsync/internal/model"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/ndef/wire"
	"github.com/danmuck/ndefsync/internal/terminal/virtual"
	"github.com/goccy/go-yaml"
)

var (
	errNotFormatted = errors.New("ndefctl: tag image is not formatted")
	errBadFormat    = errors.New("ndefctl: format must be text, json or yaml")
)

// blankImageSize matches the size of a factory-fresh Type 2 user area.
const blankImageSize = 48

func dump(w io.Writer, data []byte, raw bool, format string) error {
	msg := data
	if !raw {
		parsed, formatted, err := virtual.ParseImage(data)
		if err != nil {
			return err
		}
		if !formatted {
			return errNotFormatted
		}
		msg = parsed
	}
	records, err := wire.Codec{}.Decode(msg)
	if err != nil {
		return err
	}
	root := model.Projector{}.Represent(records)

	switch format {
	case "", "text":
		return model.Fprint(w, root)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model.Export(root))
	case "yaml":
		out, err := yaml.Marshal(model.Export(root))
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("%w: %q", errBadFormat, format)
	}
}

func placeRecords(dir string, records []ndef.Record) error {
	desc, err := virtual.LoadDescriptor(dir)
	if err != nil {
		return err
	}
	msg, err := wire.Codec{}.Encode(records)
	if err != nil {
		return err
	}
	img, err := virtual.BuildImage(desc.MaxSize, msg)
	if err != nil {
		return err
	}
	return writeImage(dir, img)
}

func placeBlank(dir string) error {
	if _, err := virtual.LoadDescriptor(dir); err != nil {
		return err
	}
	return writeImage(dir, make([]byte, blankImageSize))
}

func removeTag(dir string) error {
	err := os.Remove(filepath.Join(dir, virtual.TagImageFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// writeImage renames into place so a scanning reader never sees a partial file.
func writeImage(dir string, img []byte) error {
	path := filepath.Join(dir, virtual.TagImageFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, img, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
