package hive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"www.velocidex.com/golang/regparser"

	"github.com/ilexum-group/amcache/internal/utils"
)

// OfflineOpener opens a hive file without mounting it. The file is copied to a
// private temporary file first so the evidence is never opened for writing and
// a hive locked by the OS can still be read from a copy.
type OfflineOpener struct {
	path string
}

// NewOfflineOpener returns an opener for the hive file at path.
func NewOfflineOpener(path string) *OfflineOpener {
	return &OfflineOpener{path: path}
}

// Path implements Opener.
func (o *OfflineOpener) Path() string {
	return o.path
}

// Open implements Opener.
func (o *OfflineOpener) Open() (Reader, error) {
	tmpPath, err := snapshotFile(o.path)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G304: snapshot path was created by snapshotFile
	f, err := os.Open(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	reg, err := regparser.NewRegistry(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("parse hive %s: %w", o.path, err)
	}

	utils.LogDebug("Hive opened", map[string]string{"path": o.path, "snapshot": tmpPath})
	return &offlineReader{
		reg:      reg,
		file:     f,
		snapshot: tmpPath,
	}, nil
}

//nolint:gosec // G304: hive path is supplied by the examiner
func snapshotFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	tmpFile, err := os.CreateTemp("", "amcache_hive_*.dat")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmpFile, src); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return "", err
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}

type offlineReader struct {
	reg      *regparser.Registry
	file     *os.File
	snapshot string
}

func (r *offlineReader) OpenRoot(path string) (Root, error) {
	key := r.reg.OpenKey(path)
	if key == nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	return offlineRoot{key: key}, nil
}

// Close releases the snapshot handle and deletes the snapshot.
func (r *offlineReader) Close() error {
	if r == nil {
		return nil
	}
	var err error
	if r.file != nil {
		err = r.file.Close()
	}
	if r.snapshot != "" {
		if rmErr := os.Remove(r.snapshot); rmErr != nil && !os.IsNotExist(rmErr) {
			err = errors.Join(err, rmErr)
		}
	}
	return err
}

type offlineRoot struct {
	key *regparser.CM_KEY_NODE
}

func (o offlineRoot) Children() ([]Record, error) {
	subkeys := o.key.Subkeys()
	out := make([]Record, len(subkeys))
	for i, sub := range subkeys {
		out[i] = offlineRecord{key: sub}
	}
	return out, nil
}

type offlineRecord struct {
	key *regparser.CM_KEY_NODE
}

func (o offlineRecord) Name() string {
	return o.key.Name()
}

// Values indexes the key's values by lower-cased name. The first value wins
// when a damaged hive repeats a name.
func (o offlineRecord) Values() (ValueSet, error) {
	if o.key == nil {
		return nil, errors.New("record has no key")
	}
	values := o.key.Values()
	set := make(offlineValues, len(values))
	for _, v := range values {
		name := strings.ToLower(v.ValueName())
		if _, dup := set[name]; !dup {
			set[name] = v
		}
	}
	return set, nil
}

type offlineValues map[string]*regparser.CM_KEY_VALUE

func (s offlineValues) ReadString(name string) (string, bool) {
	v, ok := s[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return decodeString(v.ValueData())
}

func (s offlineValues) ReadUint64(name string) (uint64, bool) {
	v, ok := s[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return decodeQWORD(v.ValueData())
}

// decodeString accepts REG_SZ and REG_EXPAND_SZ only.
func decodeString(d *regparser.ValueData) (string, bool) {
	if d == nil || d.Error != nil {
		return "", false
	}
	switch d.Type {
	case regparser.REG_SZ, regparser.REG_EXPAND_SZ:
		return strings.TrimRight(d.String, "\x00"), true
	}
	return "", false
}

// decodeQWORD accepts REG_QWORD only. Size and link date fields are QWORDs in
// every Amcache layout; a DWORD in their place is treated as damage.
func decodeQWORD(d *regparser.ValueData) (uint64, bool) {
	if d == nil || d.Error != nil || d.Type != regparser.REG_QWORD {
		return 0, false
	}
	return d.Uint64, true
}
