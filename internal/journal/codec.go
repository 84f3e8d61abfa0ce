package journal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/url"

	"github.com/google/uuid"
)

// Travel-log record tags.
const (
	TagIndex byte = 0x01 // id of the current entry
	TagFull  byte = 0x02 // the whole journal plus a base URI
)

const schemaVersion byte = 1

// Record is a decoded travel-log record.
type Record struct {
	Tag byte

	// EntryID is set for TagIndex records.
	EntryID int

	// BaseURI and Journal are set for TagFull records.
	BaseURI *url.URL
	Journal *Journal
}

// EncodeIndex writes a TagIndex record naming entry id.
func EncodeIndex(w io.Writer, id int) error {
	if id <= 0 || uint64(id) > math.MaxUint32 {
		return fmt.Errorf("%w: entry id %d out of range", ErrInvalidArgument, id)
	}
	var buf [5]byte
	buf[0] = TagIndex
	binary.BigEndian.PutUint32(buf[1:], uint32(id))
	_, err := w.Write(buf[:])
	return err
}

// EncodeJournal writes a TagFull record holding j. Entries that hold live
// content cannot be encoded; prune them first.
func EncodeJournal(w io.Writer, j *Journal, base *url.URL) error {
	groups, index := collectGroups(j.entries)

	var e encoder
	e.byte(TagFull)
	e.byte(schemaVersion)
	e.uri(base)
	e.i32(int32(j.current))
	e.u32(uint32(j.nextID))
	e.uuid(j.owner)
	e.u32(uint32(j.limit))

	e.u32(uint32(len(groups)))
	for _, g := range groups {
		e.uuid(g.navigationServiceID)
		e.u32(g.contentID)
		e.blob(g.FormState)
		exitID := 0
		if g.exit != nil {
			exitID = g.exit.id
		}
		e.u32(uint32(exitID))
	}

	e.u32(uint32(len(j.entries)))
	for _, ent := range j.entries {
		if ent.kind.IsKeepAlive() {
			return fmt.Errorf("%w: entry %d (%s)", ErrNotSerializable, ent.id, ent.kind)
		}
		e.byte(byte(ent.kind))
		e.u32(uint32(ent.id))
		e.byte(byte(ent.Type))
		e.u32(uint32(index[ent.group]))
		e.str(ent.Name)
		e.uri(ent.Source)
		e.blob(ent.CustomState)

		switch ent.kind {
		case KindURI:
		case KindPageFunctionType, KindPageFunctionURI:
			pf := ent.pageFunction
			e.uuid(pf.ID)
			e.uuid(pf.ParentID)
			e.str(pf.TypeName)
			e.uri(pf.MarkupURI)
			e.blob(pf.State)
			e.u32(uint32(len(pf.ReturnBindings)))
			for _, b := range pf.ReturnBindings {
				e.uuid(b.ParentID)
				e.str(b.Handler)
			}
		default:
			return fmt.Errorf("%w: unknown entry kind %d", ErrInvalidArgument, ent.kind)
		}
	}

	_, err := w.Write(e.buf.Bytes())
	return err
}

// Decode reads one travel-log record.
func Decode(r io.Reader) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading travel log: %w", err)
	}
	d := &decoder{data: data}

	tag := d.byte()
	switch {
	case d.err != nil:
		return nil, d.err
	case tag == TagIndex:
		id := d.u32()
		if err := d.finish(); err != nil {
			return nil, err
		}
		return &Record{Tag: TagIndex, EntryID: int(id)}, nil
	case tag == TagFull:
		return decodeFull(d)
	}
	return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrCorruptRecord, tag)
}

func decodeFull(d *decoder) (*Record, error) {
	if v := d.byte(); d.err == nil && v != schemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorruptRecord, v)
	}
	rec := &Record{Tag: TagFull}
	rec.BaseURI = d.uri()

	j := New()
	j.current = int(d.i32())
	j.nextID = int(d.u32())
	j.owner = d.uuid()
	j.limit = int(d.u32())

	type groupExit struct {
		g  *GroupState
		id int
	}
	groups := make([]groupExit, d.count())
	for i := range groups {
		g := NewGroupState(d.uuid(), d.u32())
		g.FormState = d.blob()
		groups[i] = groupExit{g: g, id: int(d.u32())}
	}

	n := d.count()
	seen := make(map[int]bool, n)
	for i := 0; i < n && d.err == nil; i++ {
		ent := &Entry{kind: Kind(d.byte())}
		ent.id = int(d.u32())
		ent.Type = EntryType(d.byte())
		gi := int(d.u32())
		ent.Name = d.str()
		ent.Source = d.uri()
		ent.CustomState = d.blob()
		if d.err != nil {
			break
		}
		if gi >= len(groups) {
			return nil, fmt.Errorf("%w: entry %d refers to missing group %d", ErrCorruptRecord, ent.id, gi)
		}
		if ent.Type != Navigable && ent.Type != UILess {
			return nil, fmt.Errorf("%w: entry %d has unknown type %d", ErrCorruptRecord, ent.id, ent.Type)
		}
		if ent.id == 0 || seen[ent.id] {
			return nil, fmt.Errorf("%w: duplicate or zero entry id %d", ErrCorruptRecord, ent.id)
		}
		seen[ent.id] = true
		ent.group = groups[gi].g

		switch ent.kind {
		case KindURI:
		case KindKeepAlive, KindPageFunctionKeepAlive:
			return nil, fmt.Errorf("%w: entry %d holds live content", ErrCorruptRecord, ent.id)
		case KindPageFunctionType, KindPageFunctionURI:
			pf := &PageFunctionInfo{ID: d.uuid(), ParentID: d.uuid()}
			pf.TypeName = d.str()
			pf.MarkupURI = d.uri()
			pf.State = d.blob()
			bindings := d.count()
			for k := 0; k < bindings && d.err == nil; k++ {
				pf.ReturnBindings = append(pf.ReturnBindings, ReturnBinding{ParentID: d.uuid(), Handler: d.str()})
			}
			ent.pageFunction = pf
		default:
			return nil, fmt.Errorf("%w: unknown entry kind %d", ErrCorruptRecord, ent.kind)
		}
		j.entries = append(j.entries, ent)
	}
	if err := d.finish(); err != nil {
		return nil, err
	}

	for _, ge := range groups {
		if ge.id == 0 {
			continue
		}
		if e, ok := j.EntryWithID(ge.id); ok && e.group == ge.g {
			ge.g.exit = e
		}
	}

	if len(j.entries) == 0 {
		j.current = -1
	} else if j.current < 0 || j.current >= len(j.entries) {
		return nil, fmt.Errorf("%w: cursor %d outside %d entries", ErrCorruptRecord, j.current, len(j.entries))
	}
	for _, ent := range j.entries {
		if ent.id >= j.nextID {
			j.nextID = ent.id + 1
		}
	}
	j.reported = j.State()

	rec.Journal = j
	return rec, nil
}

func collectGroups(entries []*Entry) ([]*GroupState, map[*GroupState]int) {
	var groups []*GroupState
	index := make(map[*GroupState]int)
	for _, e := range entries {
		if _, ok := index[e.group]; ok {
			continue
		}
		index[e.group] = len(groups)
		groups = append(groups, e.group)
	}
	return groups, index
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) byte(b byte) { e.buf.WriteByte(b) }

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) i32(v int32) { e.u32(uint32(v)) }

func (e *encoder) uuid(id uuid.UUID) { e.buf.Write(id[:]) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf.WriteString(s)
}

// blob distinguishes nil from empty.
func (e *encoder) blob(b []byte) {
	if b == nil {
		e.byte(0)
		return
	}
	e.byte(1)
	e.u32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *encoder) uri(u *url.URL) {
	if u == nil {
		e.byte(0)
		return
	}
	e.byte(1)
	e.str(u.String())
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = fmt.Errorf("%w: truncated at offset %d", ErrCorruptRecord, d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

// finish reports the sticky error, or ErrCorruptRecord when bytes remain
// after the record.
func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if rest := len(d.data) - d.off; rest > 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, rest)
	}
	return nil
}

func (d *decoder) byte() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *decoder) i32() int32 { return int32(d.u32()) }

// count reads a length and checks it against the bytes left, so corrupt
// input cannot force a huge allocation.
func (d *decoder) count() int {
	n := int(d.u32())
	if d.err == nil && n > len(d.data)-d.off {
		d.err = fmt.Errorf("%w: count %d exceeds remaining input", ErrCorruptRecord, n)
		return 0
	}
	return n
}

func (d *decoder) uuid() uuid.UUID {
	var id uuid.UUID
	copy(id[:], d.take(16))
	return id
}

func (d *decoder) str() string {
	return string(d.take(int(d.u32())))
}

func (d *decoder) blob() []byte {
	if d.byte() == 0 {
		return nil
	}
	b := d.take(int(d.u32()))
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (d *decoder) uri() *url.URL {
	if d.byte() == 0 {
		return nil
	}
	s := d.str()
	if d.err != nil {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		d.err = fmt.Errorf("%w: bad uri %q: %v", ErrCorruptRecord, s, err)
		return nil
	}
	return u
}
