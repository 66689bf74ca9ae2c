/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package sinks

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const tableSyncTimeout = 15 * time.Second

type tableRecord struct {
	Host     string `json:"host"`
	Hostname string `json:"hostname"`
	Type     string `json:"type"`
	Extra    string `json:"extra"`
	Time     string `json:"time"`
}

// TableSync mirrors every reported failure as one flat record to the
// spreadsheet webhook. The sink is optional: an empty URL turns Sync
// into a no-op.
type TableSync struct {
	client *resty.Client
	url    string
	loc    *time.Location
}

func NewTableSync(url string, loc *time.Location) *TableSync {
	if loc == nil {
		loc = time.Local
	}
	return &TableSync{
		client: resty.New().SetTimeout(tableSyncTimeout),
		url:    url,
		loc:    loc,
	}
}

// Enabled reports whether a webhook URL is configured.
func (t *TableSync) Enabled() bool {
	return t.url != ""
}

// Sync posts one failure record. Disabled sinks drop silently.
func (t *TableSync) Sync(host, hostname, issueType, extra string, at time.Time) error {
	if !t.Enabled() {
		klog.V(4).Infof("table sync disabled, dropping record for %s/%s", host, issueType)
		return nil
	}
	rec := &tableRecord{
		Host:     host,
		Hostname: hostname,
		Type:     issueType,
		Extra:    extra,
		Time:     at.In(t.loc).Format(timeLayout),
	}
	resp, err := t.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Post(t.url)
	if err != nil {
		return errors.Wrapf(err, "failed to sync record %s/%s", host, issueType)
	}
	if !resp.IsSuccess() {
		return errors.Errorf("table sync returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
