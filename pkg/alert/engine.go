/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package alert reconciles probe findings against the issue store and
// drives notifications: first report, recurrence, detail change,
// duplicate burst, recovery, and the daily P3 digest.
package alert

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/sinks"
	"github.com/ttone18/check/pkg/store"
	"github.com/ttone18/check/pkg/types"
)

// Webhook is the card-sending surface of the Feishu notifier.
type Webhook interface {
	SendAlert(a *sinks.Alert) error
	SendRecovery(a *sinks.Alert) error
	SendDuplicate(a *sinks.Alert) error
	SendDigest(at time.Time, hosts []sinks.DigestHost) error
}

// TableSyncer mirrors reported failures to the spreadsheet webhook.
type TableSyncer interface {
	Sync(host, hostname, issueType, extra string, at time.Time) error
}

// DefaultDebounceWindow suppresses full re-reports of one (host, type)
// failure arriving in a burst.
const DefaultDebounceWindow = 60 * time.Second

const recoveredDetail = "ISSUE RESOLVED"

// Engine is the alert state machine. One instance is shared by every
// worker; the issue store serializes concurrent writers and the
// debounce cache is internally locked.
type Engine struct {
	store    *store.Store
	events   *store.EventLog
	webhook  Webhook
	table    TableSyncer
	debounce *cache.Cache
	now      func() time.Time
}

// NewEngine wires the state machine. events may be nil when the
// external event log is not configured.
func NewEngine(s *store.Store, events *store.EventLog, webhook Webhook, table TableSyncer, window time.Duration) *Engine {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Engine{
		store:    s,
		events:   events,
		webhook:  webhook,
		table:    table,
		debounce: cache.New(window, 2*window),
		now:      time.Now,
	}
}

// HandleFinding reconciles one probe verdict. A success closes every
// covered issue type; a failure opens or refreshes exactly one.
func (e *Engine) HandleFinding(host, hostname string, f types.Finding) {
	if f.Success {
		for _, issueType := range f.Covers {
			e.handleResolved(host, hostname, issueType)
		}
		return
	}
	e.handleFailed(host, hostname, f.Type, f.Extra)
}

func (e *Engine) handleFailed(host, hostname, issueType, extra string) {
	meta := MetadataFor(issueType)
	key := debounceKey(host, issueType)

	// A failure repeating inside the window gets a marker card only,
	// nothing is written. P3 issues skip the marker too: their only
	// outlet is the daily digest.
	if _, burst := e.debounce.Get(key); burst {
		if IsP3(meta.Priority) {
			klog.V(4).Infof("[%s] high frequency duplicate of P3 %s, dropping", hostname, issueType)
			return
		}
		klog.Infof("[%s] high frequency duplicate of %s, sending marker only", hostname, issueType)
		if err := e.webhook.SendDuplicate(e.newAlert(host, hostname, issueType, extra, meta)); err != nil {
			klog.Warningf("[%s] failed to send duplicate alert for %s: %v", hostname, issueType, err)
		}
		return
	}

	rec, err := e.store.Get(host, issueType)
	if err != nil {
		// A broken store read degrades to re-notification, never to a
		// dropped finding.
		klog.ErrorS(err, "failed to load issue record", "host", host, "type", issueType)
	}

	switch {
	case rec == nil:
		klog.Infof("[%s] new issue: %s - %s", hostname, issueType, extra)
	case rec.Status != store.StatusReported:
		klog.Infof("[%s] issue recurred: %s - %s", hostname, issueType, extra)
	case rec.Extra != extra:
		klog.Infof("[%s] issue detail changed: %s. old: %s, new: %s", hostname, issueType, rec.Extra, extra)
	default:
		klog.V(4).Infof("[%s] issue persisting, no re-alert: %s", hostname, issueType)
		return
	}

	e.report(host, hostname, issueType, extra, meta, key)
}

// report runs the full first-report path: table sync, event log, group
// alert unless P3, debounce stamp, store upsert.
func (e *Engine) report(host, hostname, issueType, extra string, meta Metadata, key string) {
	now := e.now()

	if err := e.table.Sync(host, hostname, issueType, extra, now); err != nil {
		klog.Warningf("[%s] failed to sync %s to table: %v", hostname, issueType, err)
	}
	e.events.Append(&store.EventLogEntry{
		HostIP:    host,
		HostName:  hostname,
		Type:      issueType,
		Detail:    extra,
		Timestamp: now,
	})

	if IsP3(meta.Priority) {
		klog.Infof("[%s] P3 issue %s recorded, waiting for the daily digest", hostname, issueType)
	} else {
		alert := e.newAlert(host, hostname, issueType, extra, meta)
		alert.Time = now
		if err := e.webhook.SendAlert(alert); err != nil {
			klog.Warningf("[%s] failed to send alert for %s: %v", hostname, issueType, err)
		}
	}

	e.debounce.Set(key, now, cache.DefaultExpiration)

	if err := e.store.Upsert(&store.IssueRecord{
		Host:       host,
		Hostname:   hostname,
		Type:       issueType,
		Extra:      extra,
		Status:     store.StatusReported,
		Priority:   meta.Priority,
		FirstSeen:  now,
		LastUpdate: now,
	}); err != nil {
		klog.ErrorS(err, "failed to persist issue record", "host", host, "type", issueType)
	}
}

func (e *Engine) handleResolved(host, hostname, issueType string) {
	rec, err := e.store.Get(host, issueType)
	if err != nil {
		klog.ErrorS(err, "failed to load issue record", "host", host, "type", issueType)
		return
	}
	if rec == nil || rec.Status != store.StatusReported {
		return
	}

	now := e.now()
	changed, err := e.store.MarkResolved(host, issueType, now)
	if err != nil {
		klog.ErrorS(err, "failed to resolve issue", "host", host, "type", issueType)
		return
	}
	if !changed {
		return
	}

	name := rec.Hostname
	if name == "" {
		name = hostname
	}
	klog.Infof("[%s] issue resolved: %s", name, issueType)

	e.events.Append(&store.EventLogEntry{
		HostIP:    host,
		HostName:  name,
		Type:      issueType,
		Detail:    recoveredDetail,
		Timestamp: now,
	})

	// Recovery cards go out for every priority, P3 included.
	meta := MetadataFor(issueType)
	alert := e.newAlert(host, name, issueType, rec.Extra, meta)
	alert.Time = now
	if err := e.webhook.SendRecovery(alert); err != nil {
		klog.Warningf("[%s] failed to send recovery alert for %s: %v", name, issueType, err)
	}
}

// SendDailyDigest posts the aggregated P3 report. It always emits a
// card, explicitly stating when no P3 issue is active.
func (e *Engine) SendDailyDigest() {
	recs, err := e.store.QueryActiveByTypes(P3Types())
	if err != nil {
		klog.ErrorS(err, "failed to query active P3 issues for digest")
		return
	}
	hosts := groupDigestByHost(recs)
	if err := e.webhook.SendDigest(e.now(), hosts); err != nil {
		klog.Warningf("failed to send P3 digest: %v", err)
		return
	}
	klog.Infof("daily P3 digest sent. hosts: %d, issues: %d", len(hosts), len(recs))
}

// groupDigestByHost folds store records into per-host digest blocks.
// Records arrive ordered by host, so blocks form in one pass.
func groupDigestByHost(recs []store.IssueRecord) []sinks.DigestHost {
	var hosts []sinks.DigestHost
	for _, rec := range recs {
		name := rec.Hostname
		if name == "" {
			name = rec.Host
		}
		line := fmt.Sprintf("%s: %s", rec.Type, rec.Extra)
		if n := len(hosts); n > 0 && hosts[n-1].Hostname == name {
			hosts[n-1].Lines = append(hosts[n-1].Lines, line)
			continue
		}
		hosts = append(hosts, sinks.DigestHost{Hostname: name, Lines: []string{line}})
	}
	return hosts
}

func (e *Engine) newAlert(host, hostname, issueType, extra string, meta Metadata) *sinks.Alert {
	return &sinks.Alert{
		Host:     host,
		Hostname: hostname,
		Type:     issueType,
		Extra:    extra,
		Priority: meta.Priority,
		Title:    meta.Title,
		Group:    meta.Group,
		AtAll:    RequiresAtAll(meta.Priority),
		Time:     e.now(),
	}
}

func debounceKey(host, issueType string) string {
	return host + ":" + issueType
}
