/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttone18/check/pkg/sinks"
	"github.com/ttone18/check/pkg/store"
	"github.com/ttone18/check/pkg/types"
)

type fakeWebhook struct {
	alerts     []sinks.Alert
	recoveries []sinks.Alert
	duplicates []sinks.Alert
	digests    [][]sinks.DigestHost
}

func (w *fakeWebhook) SendAlert(a *sinks.Alert) error {
	w.alerts = append(w.alerts, *a)
	return nil
}

func (w *fakeWebhook) SendRecovery(a *sinks.Alert) error {
	w.recoveries = append(w.recoveries, *a)
	return nil
}

func (w *fakeWebhook) SendDuplicate(a *sinks.Alert) error {
	w.duplicates = append(w.duplicates, *a)
	return nil
}

func (w *fakeWebhook) SendDigest(at time.Time, hosts []sinks.DigestHost) error {
	w.digests = append(w.digests, hosts)
	return nil
}

type fakeTable struct {
	synced []string
}

func (f *fakeTable) Sync(host, hostname, issueType, extra string, at time.Time) error {
	f.synced = append(f.synced, host+":"+issueType)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeWebhook, *fakeTable, *store.TestHelper) {
	t.Helper()
	helper := store.NewTestHelper(t)
	t.Cleanup(helper.Cleanup)
	wh := &fakeWebhook{}
	tbl := &fakeTable{}
	e := NewEngine(helper.Store, nil, wh, tbl, DefaultDebounceWindow)
	return e, wh, tbl, helper
}

// expireDebounce simulates the window running out between cycles.
func expireDebounce(e *Engine) {
	e.debounce.Flush()
}

func TestNewIssueRunsFullReportPath(t *testing.T) {
	e, wh, tbl, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7."))

	require.Equal(t, 1, len(wh.alerts))
	a := wh.alerts[0]
	assert.Equal(t, "10.0.0.1", a.Host)
	assert.Equal(t, "node-1", a.Hostname)
	assert.Equal(t, types.TypeGpuCnt, a.Type)
	assert.Equal(t, "Expected 8 GPUs, but found 7.", a.Extra)
	assert.Equal(t, PriorityP1, a.Priority)
	assert.Equal(t, sinks.GroupHardware, a.Group)
	assert.True(t, a.AtAll)

	assert.Equal(t, []string{"10.0.0.1:" + types.TypeGpuCnt}, tbl.synced)

	rec, err := h.Store.Get("10.0.0.1", types.TypeGpuCnt)
	require.Nil(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, store.StatusReported, rec.Status)
	assert.Equal(t, PriorityP1, rec.Priority)
	assert.Equal(t, "Expected 8 GPUs, but found 7.", rec.Extra)
}

func TestDuplicateBurstSendsMarkerOnly(t *testing.T) {
	e, wh, tbl, h := newTestEngine(t)

	finding := types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7.")
	e.HandleFinding("10.0.0.1", "node-1", finding)
	e.HandleFinding("10.0.0.1", "node-1", finding)

	assert.Equal(t, 1, len(wh.alerts))
	require.Equal(t, 1, len(wh.duplicates))
	assert.Equal(t, types.TypeGpuCnt, wh.duplicates[0].Type)
	// The burst path writes nothing: one sync, one store row.
	assert.Equal(t, 1, len(tbl.synced))
	assert.Equal(t, int64(1), h.Count("current_status"))
}

func TestPersistingIssueStaysQuiet(t *testing.T) {
	e, wh, tbl, _ := newTestEngine(t)

	finding := types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7.")
	e.HandleFinding("10.0.0.1", "node-1", finding)
	expireDebounce(e)
	e.HandleFinding("10.0.0.1", "node-1", finding)

	assert.Equal(t, 1, len(wh.alerts))
	assert.Equal(t, 0, len(wh.duplicates))
	assert.Equal(t, 1, len(tbl.synced))
}

func TestDetailChangeReportsAgain(t *testing.T) {
	e, wh, _, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7."))
	expireDebounce(e)
	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 6."))

	require.Equal(t, 2, len(wh.alerts))
	assert.Equal(t, "Expected 8 GPUs, but found 6.", wh.alerts[1].Extra)

	rec, err := h.Store.Get("10.0.0.1", types.TypeGpuCnt)
	require.Nil(t, err)
	assert.Equal(t, "Expected 8 GPUs, but found 6.", rec.Extra)
	assert.Equal(t, int64(1), h.Count("current_status"))
}

func TestRecoveryFlow(t *testing.T) {
	e, wh, _, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7."))
	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeGpuCnt, types.TypeSmiCmdError))

	require.Equal(t, 1, len(wh.recoveries))
	assert.Equal(t, types.TypeGpuCnt, wh.recoveries[0].Type)
	assert.Equal(t, "node-1", wh.recoveries[0].Hostname)

	rec, err := h.Store.Get("10.0.0.1", types.TypeGpuCnt)
	require.Nil(t, err)
	assert.Equal(t, store.StatusResolved, rec.Status)

	// Healthy again next cycle: nothing left to resolve.
	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeGpuCnt, types.TypeSmiCmdError))
	assert.Equal(t, 1, len(wh.recoveries))
}

func TestRecurrenceAfterRecovery(t *testing.T) {
	e, wh, _, _ := newTestEngine(t)

	finding := types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7.")
	e.HandleFinding("10.0.0.1", "node-1", finding)
	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeGpuCnt))
	expireDebounce(e)
	e.HandleFinding("10.0.0.1", "node-1", finding)

	assert.Equal(t, 2, len(wh.alerts))
	assert.Equal(t, 1, len(wh.recoveries))
}

func TestSuccessWithoutRecordIsNoop(t *testing.T) {
	e, wh, tbl, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeGpuCnt, types.TypeSmiCmdError))

	assert.Equal(t, 0, len(wh.recoveries))
	assert.Equal(t, 0, len(tbl.synced))
	assert.Equal(t, int64(0), h.Count("current_status"))
}

func TestP3SkipsImmediateAlert(t *testing.T) {
	e, wh, tbl, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeXidInfo, "XID 43 observed"))

	// P3 flows through state and table sync but not the group webhook.
	assert.Equal(t, 0, len(wh.alerts))
	assert.Equal(t, 1, len(tbl.synced))
	rec, err := h.Store.Get("10.0.0.1", types.TypeXidInfo)
	require.Nil(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, PriorityP3, rec.Priority)

	// Recovery cards go out even for P3.
	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeXidInfo))
	assert.Equal(t, 1, len(wh.recoveries))
}

func TestP3BurstSendsNothing(t *testing.T) {
	e, wh, tbl, _ := newTestEngine(t)

	finding := types.FailureFinding(types.TypeXidInfo, "XID 43 observed")
	e.HandleFinding("10.0.0.1", "node-1", finding)
	e.HandleFinding("10.0.0.1", "node-1", finding)

	assert.Equal(t, 0, len(wh.alerts))
	assert.Equal(t, 0, len(wh.duplicates))
	assert.Equal(t, 1, len(tbl.synced))
}

func TestUnknownTypeIsNeverDropped(t *testing.T) {
	e, wh, _, h := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding("gpu.not_in_the_table", "odd output"))

	require.Equal(t, 1, len(wh.alerts))
	assert.Equal(t, PriorityP2, wh.alerts[0].Priority)
	assert.Equal(t, sinks.GroupSoftware, wh.alerts[0].Group)
	assert.Equal(t, fallbackMetadata.Title, wh.alerts[0].Title)
	assert.False(t, wh.alerts[0].AtAll)
	assert.Equal(t, int64(1), h.Count("current_status"))
}

func TestDailyDigestGroupsByHost(t *testing.T) {
	e, wh, _, _ := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeXidInfo, "XID 43 observed"))
	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeIpRule, "found 17 rules"))
	e.HandleFinding("10.0.0.2", "node-2", types.FailureFinding(types.TypeGpuThermalSlowdown, "GPU-3 slowdown active"))
	// Non-P3 issues never show up in the digest.
	e.HandleFinding("10.0.0.2", "node-2", types.FailureFinding(types.TypeGpuCnt, "Expected 8 GPUs, but found 7."))

	e.SendDailyDigest()

	require.Equal(t, 1, len(wh.digests))
	hosts := wh.digests[0]
	require.Equal(t, 2, len(hosts))
	assert.Equal(t, "node-1", hosts[0].Hostname)
	assert.Equal(t, []string{
		types.TypeXidInfo + ": XID 43 observed",
		types.TypeIpRule + ": found 17 rules",
	}, hosts[0].Lines)
	assert.Equal(t, "node-2", hosts[1].Hostname)
	assert.Equal(t, []string{types.TypeGpuThermalSlowdown + ": GPU-3 slowdown active"}, hosts[1].Lines)
}

func TestDailyDigestHeartbeat(t *testing.T) {
	e, wh, _, _ := newTestEngine(t)

	e.SendDailyDigest()

	require.Equal(t, 1, len(wh.digests))
	assert.Equal(t, 0, len(wh.digests[0]))
}

func TestDigestSkipsResolvedIssues(t *testing.T) {
	e, wh, _, _ := newTestEngine(t)

	e.HandleFinding("10.0.0.1", "node-1", types.FailureFinding(types.TypeXidInfo, "XID 43 observed"))
	e.HandleFinding("10.0.0.1", "node-1", types.SuccessFinding(types.TypeXidInfo))

	e.SendDailyDigest()

	require.Equal(t, 1, len(wh.digests))
	assert.Equal(t, 0, len(wh.digests[0]))
}
