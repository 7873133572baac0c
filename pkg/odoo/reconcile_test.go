package odoo

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kolo/xmlrpc"
)

type recordingLogger struct {
	infos []string
}

func (l *recordingLogger) Warnf(format string, args ...interface{})  {}
func (l *recordingLogger) Errorf(format string, args ...interface{}) {}
func (l *recordingLogger) Debugf(format string, args ...interface{}) {}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

// fakeObject answers execute_kw calls the way an Odoo object endpoint would.
type fakeObject struct {
	existing    []NamedRecord
	nextID      int64
	createCalls int
	lastCreated []interface{}
	err         error
}

func (f *fakeObject) Call(method string, args interface{}, reply interface{}) error {
	if f.err != nil {
		return f.err
	}
	list := args.([]interface{})
	op := list[4].(string)
	switch op {
	case "search_read":
		*(reply.(*[]NamedRecord)) = f.existing
	case "create":
		f.createCalls++
		f.lastCreated = list[5].([]interface{})[0].([]interface{})
		ids := make([]int64, len(f.lastCreated))
		for i := range ids {
			ids[i] = f.nextID
			f.nextID++
		}
		*(reply.(*[]int64)) = ids
	default:
		return fmt.Errorf("unexpected operation %q", op)
	}
	return nil
}

type fakeCommon struct {
	reply interface{}
	err   error
}

func (f *fakeCommon) Call(method string, args interface{}, reply interface{}) error {
	if f.err != nil {
		return f.err
	}
	*(reply.(*interface{})) = f.reply
	return nil
}

func testClient(object *fakeObject, log Logger) *Client {
	return &Client{
		db:       "testdb",
		username: "admin",
		password: "secret",
		uid:      2,
		object:   object,
		log:      log,
	}
}

func TestLogin(t *testing.T) {
	c := &Client{db: "testdb", common: &fakeCommon{reply: int64(7)}}
	if err := c.Login(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.uid != 7 {
		t.Errorf("expected uid 7, got %d", c.uid)
	}
}

func TestLoginRejected(t *testing.T) {
	// Odoo answers the boolean false, not a uid, when the credentials
	// are wrong.
	c := &Client{db: "testdb", common: &fakeCommon{reply: false}}
	err := c.Login()
	if !errors.Is(err, ErrBadLogin) {
		t.Fatalf("expected ErrBadLogin for a boolean reply, got %v", err)
	}
	if errors.Is(err, ErrStoreUnreachable) {
		t.Fatal("wrong credentials must not be reported as an unreachable store")
	}

	c = &Client{db: "testdb", common: &fakeCommon{reply: int64(0)}}
	if err := c.Login(); !errors.Is(err, ErrBadLogin) {
		t.Fatalf("expected ErrBadLogin for a zero uid, got %v", err)
	}

	c = &Client{db: "testdb", common: &fakeCommon{err: xmlrpc.FaultError{Code: 1, String: "database does not exist"}}}
	if err := c.Login(); !errors.Is(err, ErrBadLogin) {
		t.Fatalf("expected ErrBadLogin for a fault, got %v", err)
	}
}

func TestReconcile(t *testing.T) {
	object := &fakeObject{existing: []NamedRecord{
		{ID: 11, Name: "Tatooine"},
		{ID: 12, Name: "Tatooine"}, // duplicate name, first one must win
		{ID: 13, Name: "Dagobah"},
	}}
	c := testClient(object, nil)

	candidates := []Candidate{
		{SourceID: 1, Name: "Tatooine"},
		{SourceID: 2, Name: "Alderaan"},
		{SourceID: 5, Name: "Dagobah"},
	}

	remaining, idMap, err := c.Reconcile("res.planet", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(remaining) != 1 || remaining[0].Name != "Alderaan" {
		t.Fatalf("expected only Alderaan to remain, got %v", remaining)
	}
	if idMap[1] != 11 {
		t.Errorf("first matching record should win, got id %d", idMap[1])
	}
	if idMap[5] != 13 {
		t.Errorf("expected Dagobah to resolve to 13, got %d", idMap[5])
	}
	if _, ok := idMap[2]; ok {
		t.Error("an unmatched candidate must not appear in the id map yet")
	}
}

func TestReconcileFault(t *testing.T) {
	object := &fakeObject{err: xmlrpc.FaultError{Code: 2, String: "Object res.nope doesn't exist"}}
	c := testClient(object, nil)

	_, _, err := c.Reconcile("res.nope", nil)
	if !errors.Is(err, ErrAuthOrModel) {
		t.Fatalf("expected ErrAuthOrModel, got %v", err)
	}
}

func TestUpload(t *testing.T) {
	object := &fakeObject{nextID: 100}
	log := &recordingLogger{}
	c := testClient(object, log)

	candidates := []Candidate{
		{SourceID: 2, Name: "Alderaan", Fields: map[string]interface{}{"name": "Alderaan"}},
		{SourceID: 7, Name: "Hoth", Fields: map[string]interface{}{"name": "Hoth"}},
	}

	idMap, err := c.Upload("res.planet", "planet", candidates, map[int]int64{1: 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idMap[2] != 100 || idMap[7] != 101 {
		t.Errorf("returned ids should be zipped with source ids in order, got %v", idMap)
	}
	if idMap[1] != 11 {
		t.Error("upload must keep ids resolved during reconciliation")
	}
	if len(log.infos) != 2 {
		t.Fatalf("expected one creation line per record, got %d", len(log.infos))
	}
	if !strings.Contains(log.infos[0], "Alderaan") || !strings.Contains(log.infos[0], "planet") {
		t.Errorf("creation line should name the kind and record: %q", log.infos[0])
	}
}

func TestUploadNothingToDo(t *testing.T) {
	object := &fakeObject{}
	c := testClient(object, nil)

	idMap, err := c.Upload("res.planet", "planet", nil, map[int]int64{3: 33})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if object.createCalls != 0 {
		t.Error("no create call should happen for an empty candidate set")
	}
	if idMap[3] != 33 {
		t.Error("id map should pass through unchanged")
	}
}

func TestUploadFault(t *testing.T) {
	object := &fakeObject{err: xmlrpc.FaultError{Code: 3, String: "validation error"}}
	c := testClient(object, nil)

	_, err := c.Upload("res.planet", "planet", []Candidate{{SourceID: 1, Name: "X"}}, nil)
	if !errors.Is(err, ErrBatchCreate) {
		t.Fatalf("expected ErrBatchCreate, got %v", err)
	}
}

// Running reconciliation again after an upload must find every record by name
// and create nothing.
func TestReconcileIdempotence(t *testing.T) {
	object := &fakeObject{nextID: 50}
	c := testClient(object, nil)

	candidates := []Candidate{
		{SourceID: 1, Name: "Tatooine", Fields: map[string]interface{}{"name": "Tatooine"}},
		{SourceID: 2, Name: "Alderaan", Fields: map[string]interface{}{"name": "Alderaan"}},
	}

	remaining, idMap, err := c.Reconcile("res.planet", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstIDs, err := c.Upload("res.planet", "planet", remaining, idMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate the store now holding what the first run created.
	for _, cand := range candidates {
		object.existing = append(object.existing, NamedRecord{ID: firstIDs[cand.SourceID], Name: cand.Name})
	}
	createCallsAfterFirstRun := object.createCalls

	remaining, idMap, err = c.Reconcile("res.planet", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondIDs, err := c.Upload("res.planet", "planet", remaining, idMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if object.createCalls != createCallsAfterFirstRun {
		t.Error("second run should create nothing")
	}
	for src, id := range firstIDs {
		if secondIDs[src] != id {
			t.Errorf("source id %d resolved to %d on the second run, expected %d", src, secondIDs[src], id)
		}
	}
}
