/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/channel"
	"github.com/ttone18/check/pkg/types"
	"github.com/ttone18/check/pkg/utils"
)

const (
	nodesFile      = "nodes.yaml"
	profilesFile   = "profiles.yaml"
	thresholdsFile = "thresholds.yaml"

	// FallbackProfile is used when discovery cannot classify a node or
	// the classified label has no profile entry.
	FallbackProfile = "unknown"
)

// Profile maps a task class to the ordered probe names it runs.
type Profile map[types.TaskClass][]string

// Inventory is one immutable snapshot of the fleet bundle. Reloads
// replace the snapshot wholesale so in-flight cycles keep a stable view.
type Inventory struct {
	Nodes      []types.NodeSpec
	Profiles   map[string]Profile
	Thresholds types.Thresholds
}

// ProbesFor returns the probe names of the given profile and task class,
// falling back to the "unknown" profile when the label has no entry.
func (inv *Inventory) ProbesFor(profile string, class types.TaskClass) []string {
	p, ok := inv.Profiles[profile]
	if !ok {
		if p, ok = inv.Profiles[FallbackProfile]; !ok {
			return nil
		}
	}
	return p[class]
}

// Manager owns the inventory bundle directory. It loads the bundle once
// at construction and hot reloads it whenever a file in the directory
// changes. A reload that fails validation keeps the previous snapshot.
type Manager struct {
	path    string
	mu      sync.RWMutex
	current *Inventory
	tomb    *channel.Tomb
}

func NewManager(path string) (*Manager, error) {
	inv, err := loadInventory(path)
	if err != nil {
		return nil, err
	}
	klog.Infof("inventory loaded. nodes: %d, profiles: %d", len(inv.Nodes), len(inv.Profiles))
	return &Manager{
		path:    path,
		current: inv,
		tomb:    channel.NewTomb(),
	}, nil
}

// Snapshot returns the current inventory. Callers must not mutate it.
func (mgr *Manager) Snapshot() *Inventory {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.current
}

func (mgr *Manager) Start() {
	go mgr.updateInventory()
}

func (mgr *Manager) Stop() {
	if mgr.tomb != nil {
		mgr.tomb.Stop()
	}
}

func (mgr *Manager) updateInventory() {
	defer mgr.tomb.Done()

	for {
		select {
		case <-mgr.tomb.Stopping():
			klog.Infof("stop to watch dir: %s", mgr.path)
			return
		default:
			if err := mgr.watchInventory(); err != nil {
				time.Sleep(time.Second)
			}
		}
	}
}

func (mgr *Manager) watchInventory() error {
	watcher, err := utils.GetDirWatcher(mgr.path)
	if err != nil {
		klog.ErrorS(err, "failed to get watcher", "path", mgr.path)
		return err
	}
	defer func() {
		if err = watcher.Close(); err != nil {
			klog.ErrorS(err, "failed to close dir watcher")
		}
	}()

	klog.Infof("start to watch dir(%s) to update inventory", mgr.path)
	for {
		select {
		case <-mgr.tomb.Stopping():
			return nil
		case ev, ok := <-watcher.Events:
			if ok && (ev.Op == fsnotify.Create || ev.Op == fsnotify.Write || ev.Op == fsnotify.Remove) {
				if err = mgr.reload(); err != nil {
					klog.ErrorS(err, "failed to reload inventory, keep previous snapshot")
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("unknown error")
			} else {
				return err
			}
		}
	}
}

func (mgr *Manager) reload() error {
	inv, err := loadInventory(mgr.path)
	if err != nil {
		return err
	}
	mgr.mu.Lock()
	mgr.current = inv
	mgr.mu.Unlock()
	klog.Infof("inventory reloaded. nodes: %d, profiles: %d", len(inv.Nodes), len(inv.Profiles))
	return nil
}

func loadInventory(dir string) (*Inventory, error) {
	inv := &Inventory{}

	nodesPath := filepath.Join(dir, nodesFile)
	data, err := os.ReadFile(nodesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", nodesPath)
	}
	var nodesDoc struct {
		Nodes []types.NodeSpec `yaml:"nodes"`
	}
	if err = yaml.Unmarshal(data, &nodesDoc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s", nodesPath)
	}
	inv.Nodes = nodesDoc.Nodes
	if len(inv.Nodes) == 0 {
		return nil, errors.Errorf("no nodes defined in %s", nodesPath)
	}
	for i := range inv.Nodes {
		if inv.Nodes[i].Host == "" {
			return nil, errors.Errorf("node %d in %s has no host", i, nodesPath)
		}
		if inv.Nodes[i].Username == "" {
			return nil, errors.Errorf("node %s in %s has no username", inv.Nodes[i].Host, nodesPath)
		}
	}

	profilesPath := filepath.Join(dir, profilesFile)
	data, err = os.ReadFile(profilesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", profilesPath)
	}
	var profilesDoc struct {
		Profiles map[string]Profile `yaml:"profiles"`
	}
	if err = yaml.Unmarshal(data, &profilesDoc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s", profilesPath)
	}
	inv.Profiles = profilesDoc.Profiles
	if len(inv.Profiles) == 0 {
		return nil, errors.Errorf("no profiles defined in %s", profilesPath)
	}

	thresholdsPath := filepath.Join(dir, thresholdsFile)
	if utils.IsFileExist(thresholdsPath) {
		data, err = os.ReadFile(thresholdsPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", thresholdsPath)
		}
		if err = yaml.Unmarshal(data, &inv.Thresholds); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal %s", thresholdsPath)
		}
	}
	inv.Thresholds.SetDefaults()
	return inv, nil
}
