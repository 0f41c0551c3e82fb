package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panbridge/panbridge/internal/pan"
)

// fakeBackend is a scripted in-memory backend. It records every call and
// detects overlapping invocations so tests can assert that the manager
// serializes all backend access.
type fakeBackend struct {
	user, password, token string

	signInCode int
	signInErr  error

	// dirs maps directory ID to its children.
	dirs map[int64][]pan.Entry

	links map[int64]string // file ID -> download URL

	cwd      int64
	lastList []pan.Entry

	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	overlaps atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		signInCode: 200,
		token:      "tok-issued",
		dirs:       map[int64][]pan.Entry{},
		links:      map[int64]string{},
	}
}

// enter marks a backend call in progress. Calls must never overlap: the
// manager's lock is the only thing preventing it.
func (f *fakeBackend) enter(name string) func() {
	if f.inflight.Add(1) > 1 {
		f.overlaps.Add(1)
	}

	// Hold the call open long enough for racing goroutines to collide.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	return func() { f.inflight.Add(-1) }
}

func (f *fakeBackend) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) SignIn(_ context.Context) (int, error) {
	defer f.enter("SignIn")()

	return f.signInCode, f.signInErr
}

func (f *fakeBackend) Credentials() (string, string, string) {
	return f.user, f.password, f.token
}

func (f *fakeBackend) Cwd() int64 { return f.cwd }

func (f *fakeBackend) SetCwd(dirID int64) { f.cwd = dirID }

func (f *fakeBackend) ListDir(_ context.Context, dirID int64) ([]pan.Entry, error) {
	defer f.enter(fmt.Sprintf("ListDir(%d)", dirID))()

	f.cwd = dirID
	f.lastList = f.dirs[dirID]

	return f.lastList, nil
}

func (f *fakeBackend) LinkAt(_ context.Context, index int) (string, error) {
	defer f.enter(fmt.Sprintf("LinkAt(%d)", index))()

	if index < 0 || index >= len(f.lastList) {
		return "", pan.ErrNotFound
	}

	return f.links[f.lastList[index].FileID], nil
}

func (f *fakeBackend) CreateFolder(_ context.Context, name string) (int64, error) {
	defer f.enter("CreateFolder(" + name + ")")()

	return 1000, nil
}

func (f *fakeBackend) Delete(_ context.Context, fileID int64) error {
	defer f.enter(fmt.Sprintf("Delete(%d)", fileID))()

	return nil
}

func (f *fakeBackend) Share(_ context.Context, fileID int64) (string, error) {
	defer f.enter(fmt.Sprintf("Share(%d)", fileID))()

	return "https://share.example/x", nil
}

func (f *fakeBackend) Upload(_ context.Context, localPath string) (int64, error) {
	defer f.enter("Upload(" + localPath + ")")()

	return 2000, nil
}

func folder(id int64, name string) pan.Entry {
	return pan.Entry{FileID: id, FileName: name, Type: 1}
}

func file(id int64, name string, size int64) pan.Entry {
	return pan.Entry{FileID: id, FileName: name, Type: 0, Size: size}
}
