// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/vanadium/vom/vdl"
)

// Dump returns the dump of data, one atom or status per line.
func Dump(data []byte) string {
	var out bytes.Buffer
	d := NewDumper(NewDumpWriter(&out))
	d.Write(data)
	d.Close()
	return out.String()
}

// DumpKind classifies a DumpAtom.
type DumpKind int

const (
	DumpKindVersion       DumpKind = iota // version byte
	DumpKindControl                       // NIL or END
	DumpKindMsgId                         // signed id starting a message
	DumpKindTypeMsg                       // id defined by a type message
	DumpKindValueMsg                      // type id of a value message
	DumpKindMsgLen                        // message byte length
	DumpKindWireTypeIndex                 // wire type union index
	DumpKindPrimValue                     // primitive value
	DumpKindByteLen                       // string or bytes length
	DumpKindValueLen                      // list, set or map length
	DumpKindIndex                         // enum index, field delta or union index
	DumpKindTypeId                        // type id inside an any or typeobject
)

func (k DumpKind) String() string {
	names := [...]string{"Version", "Control", "MsgId", "TypeMsg", "ValueMsg", "MsgLen",
		"WireTypeIndex", "PrimValue", "ByteLen", "ValueLen", "Index", "TypeId"}
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("DumpKind(%d)", int(k))
	}
	return names[k]
}

// DumpAtom is one indivisible piece of an encoding.
type DumpAtom struct {
	Kind  DumpKind
	Bytes []byte      // encoded bytes
	Data  interface{} // decoded data: uint64, int64, float64, bool, string or []byte
	Debug string
}

func (a DumpAtom) String() string {
	data := fmt.Sprintf("%20v", a.Data)
	switch a.Data.(type) {
	case string, []byte:
		data = fmt.Sprintf("%20q", a.Data)
	}
	s := fmt.Sprintf("%-20x %-15v %s", a.Bytes, a.Kind, data)
	if a.Debug == "" {
		return s
	}
	return s + " [" + a.Debug + "]"
}

// DumpStatus is the state of a Dumper.  One is written after each message
// that ends a value or fails, and one on each call to Dumper.Status.
type DumpStatus struct {
	MsgId  int64
	MsgLen int    // declared length, if the message has one
	MsgN   int    // bytes consumed so far
	Buf    []byte // buffered bytes not yet consumed
	Debug  string // what the dumper is waiting for
	Value  *vdl.Value
	Err    error
}

func (s DumpStatus) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DumpStatus{MsgId: %d", s.MsgId)
	if s.MsgLen != 0 {
		fmt.Fprintf(&sb, ", MsgLen: %d", s.MsgLen)
	}
	if s.MsgN != 0 {
		fmt.Fprintf(&sb, ", MsgN: %d", s.MsgN)
	}
	if len(s.Buf) > 0 {
		fmt.Fprintf(&sb, `, Buf(%d): "%x"`, len(s.Buf), s.Buf)
	}
	if s.Debug != "" {
		fmt.Fprintf(&sb, ", Debug: %q", s.Debug)
	}
	if s.Value.IsValid() {
		fmt.Fprintf(&sb, ", Value: %v", s.Value)
	}
	if s.Err != nil {
		fmt.Fprintf(&sb, ", Err: %v", s.Err)
	}
	sb.WriteByte('}')
	return sb.String()
}

// DumpWriter receives the output of a Dumper.
type DumpWriter interface {
	WriteAtom(atom DumpAtom)
	WriteStatus(status DumpStatus)
}

// NewDumpWriter returns a DumpWriter that prints each atom and status to w on
// its own line.
func NewDumpWriter(w io.Writer) DumpWriter { return lineDumpWriter{w} }

type lineDumpWriter struct{ w io.Writer }

func (w lineDumpWriter) WriteAtom(atom DumpAtom)       { fmt.Fprintln(w.w, atom) }
func (w lineDumpWriter) WriteStatus(status DumpStatus) { fmt.Fprintln(w.w, status) }

// Dumper writes a dump of the vom data fed to it through Write.  Data may
// arrive in arbitrary chunks; the dump advances as far as the data allows.
// Close must be called once the Dumper is no longer needed.
//
// Decoding happens on a worker goroutine that runs the ordinary value reader
// with the Dumper hooked in, so the dump shows exactly what a Decoder sees.
type Dumper struct {
	cmds   chan<- dumpCmd
	exited <-chan struct{}
}

var _ io.WriteCloser = (*Dumper)(nil)

type dumpOp int

const (
	dumpWrite dumpOp = iota
	dumpFlush
	dumpStatus
)

type dumpCmd struct {
	op   dumpOp
	data []byte
	done chan struct{} // closed once the worker has handled the command
}

// NewDumper returns a Dumper writing to w.
func NewDumper(w DumpWriter) *Dumper {
	cmds, exited := make(chan dumpCmd), make(chan struct{})
	worker := &dumpWorker{cmds: cmds, exited: exited, w: w, types: newTypeDecoder()}
	worker.buf = newDecbuf(worker)
	worker.r = valueReader{buf: worker.buf, types: worker.types, dump: worker}
	go worker.loop()
	return &Dumper{cmds, exited}
}

func (d *Dumper) send(op dumpOp, data []byte) {
	done := make(chan struct{})
	d.cmds <- dumpCmd{op, data, done}
	<-done
}

// Write feeds data to the dumper.  It returns once all of data is consumed.
func (d *Dumper) Write(data []byte) (int, error) {
	if len(data) > 0 {
		d.send(dumpWrite, data)
	}
	return len(data), nil
}

// Flush discards any partial message, so that the next Write starts a new
// message.  Use it to recover after corrupt data.  Known types are kept.
func (d *Dumper) Flush() error {
	d.send(dumpFlush, nil)
	return nil
}

// Status writes the current status, which is useful while a message is
// incomplete.
func (d *Dumper) Status() { d.send(dumpStatus, nil) }

// Close flushes the dumper and stops its worker.
func (d *Dumper) Close() error {
	d.Flush()
	close(d.cmds)
	<-d.exited
	return nil
}

var (
	errDumperClosed  = errors.New("vom: Dumper closed")
	errDumperFlushed = errors.New("vom: Dumper flushed")
)

// dumpWorker is the io.Reader under the worker's decbuf.  Its Read is only
// called while the decode loop is blocked on more data, so that is where
// commands are handled.
type dumpWorker struct {
	cmds   <-chan dumpCmd
	exited chan<- struct{}

	w      DumpWriter
	buf    *decbuf
	types  *TypeDecoder
	r      valueReader
	status DumpStatus

	pending   bytes.Buffer    // written data not yet handed to buf
	writeDone chan<- struct{} // closed when pending is drained
	flushDone chan<- struct{} // closed when the current message is abandoned
}

func (d *dumpWorker) Read(p []byte) (int, error) {
	if n, _ := d.pending.Read(p); n > 0 || len(p) == 0 {
		return n, nil
	}
	finish(&d.writeDone)
	for cmd := range d.cmds {
		switch cmd.op {
		case dumpStatus:
			d.writeStatus()
			close(cmd.done)
		case dumpFlush:
			d.flushDone = cmd.done
			return 0, errDumperFlushed
		case dumpWrite:
			n := copy(p, cmd.data)
			d.pending.Write(cmd.data[n:])
			d.writeDone = cmd.done
			return n, nil
		}
	}
	return 0, errDumperClosed
}

// finish closes *ch if it's set, and clears it.
func finish(ch *chan<- struct{}) {
	if *ch != nil {
		close(*ch)
		*ch = nil
	}
}

func (d *dumpWorker) loop() {
	for {
		err := d.next()
		d.endMessage(err)
		if err == nil {
			continue
		}
		// Drop everything on error, or the same bad bytes would be read again.
		d.buf.Reset()
		d.pending.Reset()
		finish(&d.writeDone)
		finish(&d.flushDone)
		if errors.Is(err, errDumperClosed) {
			close(d.exited)
			return
		}
	}
}

// endMessage writes the status for a message that ended with err.  Nothing is
// written if the dumper was flushed or closed between messages.
func (d *dumpWorker) endMessage(err error) {
	idle := d.status.MsgLen == 0 && d.status.MsgN == 0
	if idle && (errors.Is(err, errDumperFlushed) || errors.Is(err, errDumperClosed)) {
		return
	}
	d.status.Err = err
	if err == nil {
		d.status.Debug = ""
	}
	d.writeStatus()
}

func (d *dumpWorker) writeStatus() {
	d.status.Buf = nil
	if d.buf.Buffered() > 0 {
		d.status.Buf = append([]byte(nil), d.buf.Unread()...)
	}
	d.w.WriteStatus(d.status)
}

// prepare records what is being waited for, and starts a new atom.
func (d *dumpWorker) prepare(format string, v ...interface{}) {
	d.status.Debug = fmt.Sprintf(format, v...)
	d.buf.Mark()
}

// atom writes the atom read since the last prepare.
func (d *dumpWorker) atom(kind DumpKind, data interface{}, format string, v ...interface{}) {
	raw := append([]byte(nil), d.buf.SinceMark()...)
	if len(raw) == 0 {
		raw = nil
	}
	if b, ok := data.([]byte); ok {
		data = append([]byte(nil), b...)
	}
	d.w.WriteAtom(DumpAtom{Kind: kind, Bytes: raw, Data: data, Debug: fmt.Sprintf(format, v...)})
	if kind == DumpKindMsgLen {
		// MsgN counts the body only, so it matches MsgLen at the end.
		d.status.MsgLen, d.status.MsgN = int(data.(uint64)), 0
	} else {
		d.status.MsgN += len(raw)
	}
	d.buf.Mark()
}

// next dumps messages up to and including the next value message.
func (d *dumpWorker) next() error {
	for {
		d.status = DumpStatus{}
		// The version byte is optional here, so a dump may start mid-stream.
		// No message starts with 0x80.
		d.prepare("waiting for version byte or first byte of message")
		b, err := d.buf.PeekByte()
		if err != nil {
			return err
		}
		if b == Version80 {
			if err := d.buf.Skip(1); err != nil {
				return err
			}
			d.atom(DumpKindVersion, b, "vom version 80")
		}
		d.prepare("waiting for message id")
		id, err := binaryDecodeInt(d.buf)
		if err != nil {
			return err
		}
		d.atom(DumpKindMsgId, id, "")
		d.status.MsgId = id
		if id == 0 {
			return errCorrupt("message id 0")
		}
		if id > 0 {
			return d.valueMessage(TypeId(id))
		}
		tid := TypeId(-id)
		d.atom(DumpKindTypeMsg, uint64(tid), "")
		wt, err := d.r.readMessage(wireTypeType)
		if err != nil {
			return err
		}
		// Types are built lazily, when a value first refers to them.
		if err := d.types.addWireType(tid, wt); err != nil {
			return err
		}
	}
}

func (d *dumpWorker) valueMessage(tid TypeId) error {
	tt, err := d.types.lookupType(tid)
	if err != nil {
		d.atom(DumpKindValueMsg, uint64(tid), "%v", err)
		return err
	}
	d.atom(DumpKindValueMsg, uint64(tid), "%v", tt)
	d.status.Value, err = d.r.readMessage(tt)
	return err
}
