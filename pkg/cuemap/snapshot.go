package cuemap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Snapshot wire format: header [magic "CMAP"][u16 version][u16 reserved],
// then records, then the cue index (cue -> ordered id list), then
// co-occurrence triples, then the alias table — all little-endian with
// length-prefixed strings. Writes go through a tmp-file-then-rename
// step so a crash mid-write never leaves a truncated snapshot in place.
const (
	snapshotMagic   = "CMAP"
	snapshotVersion = uint16(1)
)

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Save writes a full snapshot of the engine's state to path atomically:
// it creates path's directory if needed, writes to "<path>.tmp", fsyncs,
// then renames over path.
func (e *Engine) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ErrSnapshotIO("failed to create snapshot directory", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return ErrSnapshotIO("failed to create snapshot temp file", err)
	}
	w := bufio.NewWriter(f)

	if err := e.writeSnapshot(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return ErrSnapshotIO("failed to write snapshot", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ErrSnapshotIO("failed to flush snapshot", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ErrSnapshotIO("failed to fsync snapshot", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ErrSnapshotIO("failed to close snapshot", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ErrSnapshotIO("failed to rename snapshot into place", err)
	}
	return nil
}

func (e *Engine) writeSnapshot(w io.Writer) error {
	if _, err := io.WriteString(w, snapshotMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, snapshotVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
		return err
	}

	records := e.store.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(records))); err != nil {
		return err
	}
	for _, r := range records {
		if err := writeRecord(w, r); err != nil {
			return err
		}
	}

	cuePostings := e.cueIndex.snapshotPostings()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(cuePostings))); err != nil {
		return err
	}
	for cue, ids := range cuePostings {
		if err := writeString(w, string(cue)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
			return err
		}
		for _, id := range ids {
			if err := writeString(w, id); err != nil {
				return err
			}
		}
	}

	triples := e.coOccur.Triples()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triples))); err != nil {
		return err
	}
	for _, t := range triples {
		if err := writeString(w, string(t.A)); err != nil {
			return err
		}
		if err := writeString(w, string(t.B)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, t.Count); err != nil {
			return err
		}
	}

	aliases := e.aliases.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(aliases))); err != nil {
		return err
	}
	for _, a := range aliases {
		if err := writeString(w, string(a.From)); err != nil {
			return err
		}
		if err := writeString(w, string(a.To)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, a.Weight); err != nil {
			return err
		}
	}

	return nil
}

func writeRecord(w io.Writer, r *MemoryRecord) error {
	if err := writeString(w, r.ID); err != nil {
		return err
	}
	if err := writeString(w, r.Content); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(r.Cues))); err != nil {
		return err
	}
	for c := range r.Cues {
		if err := writeString(w, string(c)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(r.Metadata))); err != nil {
		return err
	}
	for k, v := range r.Metadata {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, r.CreatedAt.UnixMicro()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, r.LastAccess.UnixMicro()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, r.Reinforcement); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, r.Salience)
}

func readRecord(r io.Reader) (*MemoryRecord, error) {
	id, err := readString(r)
	if err != nil {
		return nil, err
	}
	content, err := readString(r)
	if err != nil {
		return nil, err
	}
	var cueCount uint32
	if err := binary.Read(r, binary.LittleEndian, &cueCount); err != nil {
		return nil, err
	}
	cues := make(map[Cue]struct{}, cueCount)
	for i := uint32(0); i < cueCount; i++ {
		c, err := readString(r)
		if err != nil {
			return nil, err
		}
		cues[Cue(c)] = struct{}{}
	}
	var mdCount uint32
	if err := binary.Read(r, binary.LittleEndian, &mdCount); err != nil {
		return nil, err
	}
	md := make(map[string]string, mdCount)
	for i := uint32(0); i < mdCount; i++ {
		k, err := readString(r)
		if err != nil {
			return nil, err
		}
		v, err := readString(r)
		if err != nil {
			return nil, err
		}
		md[k] = v
	}
	var createdMicro, lastMicro int64
	if err := binary.Read(r, binary.LittleEndian, &createdMicro); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &lastMicro); err != nil {
		return nil, err
	}
	var reinforcement uint32
	if err := binary.Read(r, binary.LittleEndian, &reinforcement); err != nil {
		return nil, err
	}
	var salience float64
	if err := binary.Read(r, binary.LittleEndian, &salience); err != nil {
		return nil, err
	}
	return &MemoryRecord{
		ID:            id,
		Content:       content,
		Cues:          cues,
		Metadata:      md,
		CreatedAt:     time.UnixMicro(createdMicro),
		LastAccess:    time.UnixMicro(lastMicro),
		Reinforcement: reinforcement,
		Salience:      salience,
	}, nil
}

// Load replaces the engine's state with the snapshot at path. If the
// file is corrupt, it is moved aside to "<name>.corrupt.<timestamp>",
// a warning is logged, and the engine is left empty rather than
// returning a partially-loaded state.
func (e *Engine) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ErrSnapshotIO("failed to open snapshot", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := e.readSnapshot(r); err != nil {
		quarantinePath := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
		f.Close()
		_ = os.Rename(path, quarantinePath)
		e.logf("snapshot %s is corrupt, quarantined to %s: %v", path, quarantinePath, err)
		e.reset()
		return nil
	}
	return nil
}

func (e *Engine) readSnapshot(r io.Reader) error {
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return err
	}
	if string(magic) != snapshotMagic {
		return fmt.Errorf("bad magic %q", magic)
	}
	var version, reserved uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return err
	}
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", version)
	}

	var recordCount uint32
	if err := binary.Read(r, binary.LittleEndian, &recordCount); err != nil {
		return err
	}
	records := make([]*MemoryRecord, 0, recordCount)
	for i := uint32(0); i < recordCount; i++ {
		rec, err := readRecord(r)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	var cueCount uint32
	if err := binary.Read(r, binary.LittleEndian, &cueCount); err != nil {
		return err
	}
	postings := make(map[Cue][]string, cueCount)
	for i := uint32(0); i < cueCount; i++ {
		cue, err := readString(r)
		if err != nil {
			return err
		}
		var idCount uint32
		if err := binary.Read(r, binary.LittleEndian, &idCount); err != nil {
			return err
		}
		ids := make([]string, 0, idCount)
		for j := uint32(0); j < idCount; j++ {
			id, err := readString(r)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		postings[Cue(cue)] = ids
	}

	var triCount uint32
	if err := binary.Read(r, binary.LittleEndian, &triCount); err != nil {
		return err
	}
	triples := make([]CoTriple, 0, triCount)
	for i := uint32(0); i < triCount; i++ {
		a, err := readString(r)
		if err != nil {
			return err
		}
		b, err := readString(r)
		if err != nil {
			return err
		}
		var cnt uint32
		if err := binary.Read(r, binary.LittleEndian, &cnt); err != nil {
			return err
		}
		triples = append(triples, CoTriple{A: Cue(a), B: Cue(b), Count: cnt})
	}

	var aliasCount uint32
	if err := binary.Read(r, binary.LittleEndian, &aliasCount); err != nil {
		return err
	}
	aliasTriples := make([]AliasTriple, 0, aliasCount)
	for i := uint32(0); i < aliasCount; i++ {
		from, err := readString(r)
		if err != nil {
			return err
		}
		to, err := readString(r)
		if err != nil {
			return err
		}
		var weight float64
		if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
			return err
		}
		aliasTriples = append(aliasTriples, AliasTriple{From: Cue(from), To: Cue(to), Weight: weight})
	}

	e.reset()
	for _, rec := range records {
		e.store.Put(rec)
	}
	e.cueIndex.loadPostings(postings)
	e.coOccur.LoadTriples(triples)
	e.aliases.LoadAll(aliasTriples)
	return nil
}

// SnapshotPath returns the conventional snapshot file path for a tenant
// under dataDir.
func SnapshotPath(dataDir, tenantID string) string {
	return filepath.Join(dataDir, "snapshots", tenantID+".bin")
}
