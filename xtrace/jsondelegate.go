package xtrace

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// CallRecord is one completed call as written by JSONDelegate.
type CallRecord struct {
	ID       string        `json:"id"`
	Class    string        `json:"class"`
	Selector string        `json:"selector"`
	Receiver uint64        `json:"receiver"`
	Depth    int           `json:"depth"`
	Args     []string      `json:"args,omitempty"`
	Return   *string       `json:"return,omitempty"`
	Panicked bool          `json:"panicked,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// JSONDelegate writes completed calls as a JSON array. Entries are kept
// until the matching exit arrives; Finish closes the array.
type JSONDelegate struct {
	w           io.Writer
	lock        sync.Mutex
	firstRecord bool
	finished    bool
	inflight    map[string]CallEvent
}

// NewJSONDelegate creates a JSONDelegate and writes the opening bracket.
func NewJSONDelegate(w io.Writer) *JSONDelegate {
	d := &JSONDelegate{
		w:           w,
		firstRecord: true,
		inflight:    make(map[string]CallEvent),
	}

	d.write([]byte("[\n"))

	return d
}

// MethodEntered records the start of a call.
func (d *JSONDelegate) MethodEntered(e CallEvent) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.inflight[e.ID] = e
}

// MethodExited writes the completed call.
func (d *JSONDelegate) MethodExited(e CallEvent) {
	d.lock.Lock()
	defer d.lock.Unlock()

	entered, ok := d.inflight[e.ID]
	if !ok || d.finished {
		return
	}
	delete(d.inflight, e.ID)

	rec := CallRecord{
		ID:       e.ID,
		Class:    e.Class,
		Selector: string(e.Selector),
		Receiver: uint64(e.Receiver),
		Depth:    e.Depth,
		Args:     entered.Args,
		Panicked: e.Panicked,
		Elapsed:  e.Elapsed,
	}
	if e.HasReturn {
		ret := e.Return
		rec.Return = &ret
	}

	b, err := json.Marshal(rec)
	if err != nil {
		panic(err)
	}

	if d.firstRecord {
		d.firstRecord = false
	} else {
		d.write([]byte(",\n"))
	}

	d.write(b)
}

// Finish closes the JSON array. Calls exiting afterwards are dropped.
func (d *JSONDelegate) Finish() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.finished {
		return
	}
	d.finished = true

	d.write([]byte("\n]\n"))
}

func (d *JSONDelegate) write(b []byte) {
	_, err := d.w.Write(b)
	if err != nil {
		panic(err)
	}
}
