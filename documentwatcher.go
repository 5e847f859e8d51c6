package widget

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DocumentWatcher is a ContentSizeWatcher over an HTML file on disk. Every
// write to the file is treated as one mutation batch and the height is
// estimated with MeasureHeight.
type DocumentWatcher struct {
	path   string
	rootID string
	logger *zap.Logger
}

// NewDocumentWatcher returns a watcher for the HTML document at path. rootID
// is the id of the content root element; if empty the document body is used.
func NewDocumentWatcher(path string, rootID string, logger *zap.Logger) *DocumentWatcher {
	return &DocumentWatcher{
		path:   filepath.Clean(path),
		rootID: rootID,
		logger: logger,
	}
}

func (w *DocumentWatcher) ScrollHeight() int {
	h, err := w.measure()
	if err != nil {
		w.logger.Warn("failed to measure document", zap.String("path", w.path), zap.Error(err))
		return 0
	}
	return h
}

func (w *DocumentWatcher) Watch() (Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %v", err)
	}
	// Watch the directory rather than the file so saves that replace the
	// file (write to temp then rename) are still seen.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %v", w.path, err)
	}

	s := &documentSubscription{
		watcher: watcher,
		heights: make(chan int),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go w.run(s)
	return s, nil
}

func (w *DocumentWatcher) run(s *documentSubscription) {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			h, err := w.measure()
			if err != nil {
				w.logger.Debug("failed to measure document", zap.String("path", w.path), zap.Error(err))
				continue
			}
			select {
			case s.heights <- h:
			case <-s.done:
				return
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("document watcher error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

func (w *DocumentWatcher) measure() (int, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", w.path, err)
	}

	root := findContentRoot(doc, w.rootID)
	if root == nil {
		return 0, fmt.Errorf("content root %q not found in %s", w.rootID, w.path)
	}
	return MeasureHeight(root), nil
}

func findContentRoot(doc *html.Node, rootID string) *html.Node {
	if rootID != "" {
		return findElement(doc, func(n *html.Node) bool {
			return getAttr(n, "id") == rootID
		})
	}
	return findElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Body
	})
}

type documentSubscription struct {
	watcher *fsnotify.Watcher
	heights chan int
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func (s *documentSubscription) Heights() <-chan int {
	return s.heights
}

func (s *documentSubscription) Disconnect() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.watcher.Close()
	})
}
