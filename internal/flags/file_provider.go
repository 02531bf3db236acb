// Package flags - file-backed provider watching flags.yaml with fsnotify.
package flags

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/orbit-wallet/orbitd/internal/storage"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// FlagsFileName is the default flags file name inside the data directory.
const FlagsFileName = "flags.yaml"

// fileFlags is the on-disk flag document.
type fileFlags struct {
	UseWalletService bool `yaml:"use_wallet_service"`
}

// FileProvider reads backend-selection flags from a YAML file and emits a
// change whenever the selection flips on disk. The persistent ignore
// decision lives in the settings store and overrides the file.
type FileProvider struct {
	path  string
	store *storage.Storage
	log   *logging.Logger

	mu      sync.Mutex
	current bool
	loaded  bool
	nextID  int
	subs    map[int]chan bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider creates a provider for the flags file in dataDir and
// starts watching it. A missing file means the wallet service is disabled.
func NewFileProvider(dataDir string, store *storage.Storage) (*FileProvider, error) {
	p := &FileProvider{
		path:  filepath.Join(dataDir, FlagsFileName),
		store: store,
		log:   logging.GetDefault().Component("flags"),
		subs:  make(map[int]chan bool),
		done:  make(chan struct{}),
	}

	if err := p.watch(); err != nil {
		return nil, err
	}

	return p, nil
}

// Close stops the file watcher.
func (p *FileProvider) Close() error {
	close(p.done)
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

// ShouldUseWalletService decides RemoteService eligibility from the flags
// file, unless a persistent ignore decision was recorded.
func (p *FileProvider) ShouldUseWalletService(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ignored, err := p.store.IgnoreWalletService()
	if err != nil {
		return false, err
	}
	if ignored {
		return false, nil
	}

	return p.load(), nil
}

// IgnoreWalletService records the persistent ignore decision.
func (p *FileProvider) IgnoreWalletService() error {
	return p.store.SetIgnoreWalletService(true)
}

// Changes subscribes to flag value flips.
func (p *FileProvider) Changes() (<-chan bool, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++

	ch := make(chan bool, 8)
	p.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(ch)
			}
		})
	}

	return ch, unsubscribe
}

// load reads the flags file, remembering the last value seen.
func (p *FileProvider) load() bool {
	value, err := readFlagsFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn("Failed to read flags file", "path", p.path, "error", err)
		}
		value = false
	}

	p.mu.Lock()
	p.current = value
	p.loaded = true
	p.mu.Unlock()

	return value
}

// watch installs the fsnotify watcher on the flags file's directory.
// Watching the directory survives atomic saves that replace the file.
func (p *FileProvider) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	p.watcher = watcher
	go p.watchLoop()

	return nil
}

// watchLoop reacts to flags file edits, notifying subscribers on a flip.
func (p *FileProvider) watchLoop() {
	base := filepath.Base(p.path)

	for {
		select {
		case <-p.done:
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			p.reload()

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("Flags watcher error", "error", err)
		}
	}
}

// reload re-reads the file and notifies subscribers when the value flipped.
func (p *FileProvider) reload() {
	value, err := readFlagsFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn("Failed to reload flags file", "path", p.path, "error", err)
		}
		return
	}

	p.mu.Lock()
	changed := !p.loaded || value != p.current
	p.current = value
	p.loaded = true
	subs := make([]chan bool, 0, len(p.subs))
	for _, ch := range p.subs {
		subs = append(subs, ch)
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	p.log.Info("Wallet service flag changed", "use_wallet_service", value)
	for _, ch := range subs {
		select {
		case ch <- value:
		default:
		}
	}
}

// readFlagsFile parses the YAML flags document.
func readFlagsFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var f fileFlags
	if err := yaml.Unmarshal(data, &f); err != nil {
		return false, fmt.Errorf("failed to parse flags file: %w", err)
	}

	return f.UseWalletService, nil
}
