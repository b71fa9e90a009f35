// Package inbox ingests documents dropped into per-workspace folders.
//
// A file written to <root>/<workspaceID>/ is uploaded into that workspace
// once it stops changing, and then removed from the inbox.
package inbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

// DefaultSettle is how long a file must stay unchanged before it is ingested.
const DefaultSettle = 500 * time.Millisecond

var extensions = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
}

type Uploader interface {
	Upload(ctx context.Context, workspaceID int64, name, mimeType string, r io.Reader) (*model.Document, error)
}

type Workspaces interface {
	WorkspaceExists(ctx context.Context, id int64) (bool, error)
}

type Watcher struct {
	root       string
	docs       Uploader
	workspaces Workspaces
	settle     time.Duration
	log        *slog.Logger

	fs      *fsnotify.Watcher
	pending map[string]*pendingFile
	gen     uint64
	ready   chan settledFile
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// pendingFile is the settle timer of a path. Only the timer of the
// latest generation may trigger ingestion.
type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

type settledFile struct {
	path string
	gen  uint64
}

func New(root string, docs Uploader, workspaces Workspaces, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:       root,
		docs:       docs,
		workspaces: workspaces,
		settle:     DefaultSettle,
		log:        log.With("component", "inbox"),
		fs:         fsw,
		pending:    make(map[string]*pendingFile),
		ready:      make(chan settledFile, 16),
		done:       make(chan struct{}),
	}, nil
}

// SetSettle changes the quiet period before ingestion. Call before Start.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Start watches the root and every workspace folder already in it, then
// processes events until ctx is done or Close is called. Files already
// present are ingested too.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	if err := w.fs.Add(w.root); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	var existing []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if err := w.fs.Add(dir); err != nil {
			w.log.Warn("watch workspace folder", "dir", dir, "err", err)
			continue
		}
		files, _ := os.ReadDir(dir)
		for _, f := range files {
			if !f.IsDir() {
				existing = append(existing, filepath.Join(dir, f.Name()))
			}
		}
	}

	w.log.Info("watching inbox", "root", w.root)
	w.wg.Add(1)
	go w.loop(ctx, existing)
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context, existing []string) {
	defer w.wg.Done()
	defer func() {
		for _, p := range w.pending {
			p.timer.Stop()
		}
	}()

	for _, p := range existing {
		w.schedule(ctx, p)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case f := <-w.ready:
			if w.take(f) {
				w.ingest(ctx, f.path)
			}
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error("inbox watcher", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if filepath.Dir(ev.Name) == filepath.Clean(w.root) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.fs.Add(ev.Name); err != nil {
				w.log.Warn("watch workspace folder", "dir", ev.Name, "err", err)
			}
		}
		return
	}
	w.schedule(ctx, ev.Name)
}

// schedule (re)starts the settle timer of path. A timer that already
// fired is superseded rather than reset, so its signal is dropped by take.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if _, ok := extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return
	}
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.gen++
	f := settledFile{path: path, gen: w.gen}
	w.pending[path] = &pendingFile{
		timer: time.AfterFunc(w.settle, func() { w.signal(ctx, f) }),
		gen:   f.gen,
	}
}

// signal hands a settled file to the event loop, or gives up once the
// watcher is stopped.
func (w *Watcher) signal(ctx context.Context, f settledFile) {
	select {
	case w.ready <- f:
	case <-ctx.Done():
	case <-w.done:
	}
}

// take reports whether f is the current timer of its path and forgets it.
func (w *Watcher) take(f settledFile) bool {
	p, ok := w.pending[f.path]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(w.pending, f.path)
	return true
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	log := w.log.With("path", path)

	workspaceID, err := strconv.ParseInt(filepath.Base(filepath.Dir(path)), 10, 64)
	if err != nil {
		log.Warn("inbox folder is not a workspace id")
		return
	}
	ok, err := w.workspaces.WorkspaceExists(ctx, workspaceID)
	if err != nil {
		log.Error("check workspace", "err", err)
		return
	}
	if !ok {
		log.Warn("inbox folder for unknown workspace", "workspace", workspaceID)
		return
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Error("open inbox file", "err", err)
		return
	}
	mt := extensions[strings.ToLower(filepath.Ext(path))]
	doc, err := w.docs.Upload(ctx, workspaceID, filepath.Base(path), mt, f)
	f.Close()
	if err != nil {
		log.Error("ingest inbox file", "workspace", workspaceID, "err", err)
		return
	}

	if err := os.Remove(path); err != nil {
		log.Warn("remove inbox file", "err", err)
	}
	log.Info("inbox file ingested", "workspace", workspaceID, "document", doc.ID)
}
