// Package virtual is a directory-backed reader.
//
// Ownership boundary:
// - reader discovery under a root directory (one subdirectory per reader)
//
// - terminal.toml descriptors
//
// - tag presence polling and tag image read/write
//
// A reader directory holds terminal.toml. The tag is in the field while
// tag.bin exists; its content is a Type 2 tag image.
package virtual

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/terminal"
	"github.com/pelletier/go-toml/v2"
)

const (
	DescriptorFile = "terminal.toml"
	TagImageFile   = "tag.bin"
	TagType2       = "type2"
)

var ErrAlreadyConnected = errors.New("virtual: terminal already connected")

// Descriptor is the content of terminal.toml.
type Descriptor struct {
	Name         string `toml:"name"`
	TagType      string `toml:"tag_type"`
	MaxSize      int    `toml:"max_size"`
	ScanInterval string `toml:"scan_interval"`
	Enabled      *bool  `toml:"enabled"`
}

func DefaultDescriptor() Descriptor {
	return Descriptor{
		TagType:      TagType2,
		MaxSize:      496,
		ScanInterval: "250ms",
	}
}

// WithDefaults fills empty fields; the name defaults to the directory name.
func (d Descriptor) WithDefaults(dir string) Descriptor {
	def := DefaultDescriptor()
	if d.Name == "" {
		d.Name = filepath.Base(dir)
	}
	if d.TagType == "" {
		d.TagType = def.TagType
	}
	if d.MaxSize <= 0 {
		d.MaxSize = def.MaxSize
	}
	if d.ScanInterval == "" {
		d.ScanInterval = def.ScanInterval
	}
	return d
}

func (d Descriptor) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

func (d Descriptor) scanEvery() time.Duration {
	iv, err := time.ParseDuration(d.ScanInterval)
	if err != nil || iv <= 0 {
		iv, _ = time.ParseDuration(DefaultDescriptor().ScanInterval)
	}
	return iv
}

func LoadDescriptor(dir string) (Descriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("virtual: descriptor load failed (%s): %w", path, err)
	}
	var d Descriptor
	if err := toml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("virtual: descriptor parse failed (%s): %w", path, err)
	}
	d = d.WithDefaults(dir)
	if _, err := time.ParseDuration(d.ScanInterval); err != nil {
		return Descriptor{}, fmt.Errorf("virtual: invalid scan_interval %q: %w", d.ScanInterval, err)
	}
	return d, nil
}

// Directory enumerates reader directories under Root. The first enabled
// reader in name order is the available one.
type Directory struct {
	Root string

	mu    sync.Mutex
	cache map[string]*Terminal
}

func NewDirectory(root string) *Directory {
	return &Directory{Root: root, cache: make(map[string]*Terminal)}
}

var _ terminal.Enumerator = (*Directory)(nil)

func (d *Directory) Available() (terminal.Terminal, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("virtual: list readers: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache == nil {
		d.cache = make(map[string]*Terminal)
	}
	for _, name := range names {
		dir := filepath.Join(d.Root, name)
		desc, err := LoadDescriptor(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !desc.IsEnabled() {
			continue
		}
		if t, ok := d.cache[dir]; ok {
			return t, nil
		}
		t := NewTerminal(dir, desc)
		d.cache[dir] = t
		return t, nil
	}
	return nil, nil
}

// Terminal is one virtual reader.
type Terminal struct {
	dir  string
	desc Descriptor

	mu   sync.Mutex
	stop chan struct{}
}

var _ terminal.Terminal = (*Terminal)(nil)

func NewTerminal(dir string, desc Descriptor) *Terminal {
	return &Terminal{dir: dir, desc: desc.WithDefaults(dir)}
}

func (t *Terminal) Name() string { return t.desc.Name }

func (t *Terminal) Connect(h terminal.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return ErrAlreadyConnected
	}
	t.stop = make(chan struct{})
	go t.loop(t.stop, h)
	logs.Infof("virtual.Terminal.Connect name=%q dir=%q", t.desc.Name, t.dir)
	return nil
}

func (t *Terminal) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	logs.Infof("virtual.Terminal.Disconnect name=%q", t.desc.Name)
	return nil
}

func (t *Terminal) loop(stop <-chan struct{}, h terminal.Handler) {
	h.StatusChanged(terminal.StatusWaiting)
	present := false
	ticker := time.NewTicker(t.desc.scanEvery())
	defer ticker.Stop()
	for {
		now := t.tagPresent()
		switch {
		case now && !present:
			t.arrive(h)
		case !now && present:
			logs.Debugf("virtual.Terminal.loop name=%q tag=removed", t.desc.Name)
			h.StatusChanged(terminal.StatusDisconnected)
			h.StatusChanged(terminal.StatusWaiting)
		}
		present = now

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (t *Terminal) arrive(h terminal.Handler) {
	if t.desc.TagType != TagType2 {
		logs.Warnf("virtual.Terminal.arrive name=%q unsupported tag_type=%q", t.desc.Name, t.desc.TagType)
		h.UnsupportedTag(t.desc.TagType)
		return
	}
	logs.Debugf("virtual.Terminal.arrive name=%q tag=present", t.desc.Name)
	h.StatusChanged(terminal.StatusConnected)
	h.TagAvailable(&tagOps{path: filepath.Join(t.dir, TagImageFile), area: t.desc.MaxSize})
}

func (t *Terminal) tagPresent() bool {
	_, err := os.Stat(filepath.Join(t.dir, TagImageFile))
	return err == nil
}

// tagOps works on the image file directly; every call re-reads it so a
// removed tag fails with terminal.ErrTagGone.
type tagOps struct {
	path string
	area int
}

func (o *tagOps) image() ([]byte, error) {
	data, err := os.ReadFile(o.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, terminal.ErrTagGone
		}
		return nil, err
	}
	return data, nil
}

func (o *tagOps) IsFormatted() bool {
	data, err := o.image()
	if err != nil {
		return false
	}
	_, formatted, _ := ParseImage(data)
	return formatted
}

func (o *tagOps) HasMessage() bool {
	data, err := o.image()
	if err != nil {
		return false
	}
	msg, formatted, err := ParseImage(data)
	return err == nil && formatted && len(msg) > 0
}

func (o *tagOps) ReadMessage() ([]byte, error) {
	data, err := o.image()
	if err != nil {
		return nil, err
	}
	msg, _, err := ParseImage(data)
	return msg, err
}

func (o *tagOps) WriteMessage(msg []byte) error {
	if !o.IsFormatted() {
		if _, err := o.image(); err != nil {
			return err
		}
		return ErrNotFormatted
	}
	return o.store(msg)
}

func (o *tagOps) Format(msg []byte) error {
	if _, err := o.image(); err != nil {
		return err
	}
	return o.store(msg)
}

func (o *tagOps) MaxSize() int { return maxMessage(o.area) }

func (o *tagOps) store(msg []byte) error {
	img, err := BuildImage(o.area, msg)
	if err != nil {
		return err
	}
	tmp := o.path + ".tmp"
	if err := os.WriteFile(tmp, img, 0o644); err != nil {
		return fmt.Errorf("virtual: write tag image: %w", err)
	}
	if err := os.Rename(tmp, o.path); err != nil {
		return fmt.Errorf("virtual: write tag image: %w", err)
	}
	return nil
}
