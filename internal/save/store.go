package save

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quasilyte/gdata"

	"chessping/internal/match"
)

var ErrNoSave = errors.New("no saved game")

// Store is where snapshots live between runs. Failures never touch the match
// in memory; callers report them and carry on.
type Store interface {
	Save(match.Snapshot) error
	Load() (match.Snapshot, error)
}

// FileStore keeps a single snapshot in a file.
type FileStore struct {
	Path  string
	Codec Codec
}

func NewFileStore(path string, codec Codec) *FileStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &FileStore{Path: path, Codec: codec}
}

// Save writes to a temporary file first so a crash never leaves half a save.
func (f *FileStore) Save(s match.Snapshot) error {
	b, err := f.Codec.Encode(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create save dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write save file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace save file: %w", err)
	}
	return nil
}

func (f *FileStore) Load() (match.Snapshot, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return match.Snapshot{}, ErrNoSave
	}
	if err != nil {
		return match.Snapshot{}, fmt.Errorf("read save file: %w", err)
	}
	if len(b) == 0 {
		return match.Snapshot{}, ErrNoSave
	}
	return f.Codec.Decode(b)
}

// SlotStore keeps snapshots as named items in the per-user application data
// directory managed by gdata.
type SlotStore struct {
	Slot    string
	Codec   Codec
	manager *gdata.Manager
}

func OpenSlotStore(appName, slot string, codec Codec) (*SlotStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open app data: %w", err)
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	return &SlotStore{Slot: slot, Codec: codec, manager: m}, nil
}

func (s *SlotStore) itemKey() string {
	return "match_" + s.Slot + "." + s.Codec.Name()
}

func (s *SlotStore) Save(snap match.Snapshot) error {
	b, err := s.Codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.manager.SaveItem(s.itemKey(), b); err != nil {
		return fmt.Errorf("save slot %q: %w", s.Slot, err)
	}
	return nil
}

func (s *SlotStore) Load() (match.Snapshot, error) {
	b, err := s.manager.LoadItem(s.itemKey())
	if err != nil {
		return match.Snapshot{}, fmt.Errorf("load slot %q: %w", s.Slot, err)
	}
	if len(b) == 0 {
		return match.Snapshot{}, ErrNoSave
	}
	return s.Codec.Decode(b)
}

// AppName is the gdata application directory used by slot saves.
const AppName = "chessping"

// Open picks a slot store when slot is set and a file store at path
// otherwise. format names the codec.
func Open(path, slot, format string) (Store, error) {
	codec, err := CodecByName(format)
	if err != nil {
		return nil, err
	}
	if slot != "" {
		st, err := OpenSlotStore(AppName, slot, codec)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	if path == "" {
		return nil, errors.New("no save path or slot configured")
	}
	return NewFileStore(path, codec), nil
}
