/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package sinks delivers alert cards to the Feishu group webhooks and
// mirrors reported failures to the optional table-sync endpoint. Every
// send is bounded by a timeout and returns an error to the caller; the
// alert pipeline decides whether to log or retry.
package sinks

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Group labels route an alert to one webhook URL from the app config.
const (
	GroupHardware  = "hardware_group"
	GroupSoftware  = "software_group"
	GroupAnalytics = "analytics_group"
)

const (
	alertTimeout = 10 * time.Second
	timeLayout   = "2006-01-02 15:04:05"
	dateLayout   = "2006-01-02"
)

// Fragment is one rich-text element of a Feishu post card row.
type Fragment struct {
	Tag    string `json:"tag"`
	Text   string `json:"text,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

func textFragment(format string, args ...interface{}) Fragment {
	return Fragment{Tag: "text", Text: fmt.Sprintf(format, args...)}
}

func atAllFragment() Fragment {
	return Fragment{Tag: "at", UserID: "all"}
}

type postCard struct {
	MsgType string      `json:"msg_type"`
	Content postContent `json:"content"`
}

type postContent struct {
	Post postLocales `json:"post"`
}

type postLocales struct {
	ZhCn postBody `json:"zh_cn"`
}

type postBody struct {
	Title   string       `json:"title"`
	Content [][]Fragment `json:"content"`
}

func newPostCard(title string, rows [][]Fragment) *postCard {
	return &postCard{
		MsgType: "post",
		Content: postContent{Post: postLocales{ZhCn: postBody{Title: title, Content: rows}}},
	}
}

// Alert is one lifecycle transition flattened for notification.
type Alert struct {
	Host     string
	Hostname string
	Type     string
	Extra    string
	Priority string
	Title    string
	Group    string
	AtAll    bool
	Time     time.Time
}

// DigestHost is one node's block in the daily P3 digest.
type DigestHost struct {
	Hostname string
	Lines    []string
}

// Notifier posts alert cards to the configured group webhooks.
type Notifier struct {
	client *resty.Client
	urls   map[string]string
	loc    *time.Location
}

// NewNotifier wires the group-to-webhook mapping. Card timestamps
// render in loc.
func NewNotifier(urls map[string]string, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{
		client: resty.New().SetTimeout(alertTimeout),
		urls:   urls,
		loc:    loc,
	}
}

// SendAlert posts the standard card for a new, recurred or
// detail-changed issue. AtAll mentions everyone inside the detail row.
func (n *Notifier) SendAlert(a *Alert) error {
	title := fmt.Sprintf("【%s】%s - %s", a.Priority, a.Title, a.Hostname)
	detail := []Fragment{textFragment("描述: %s", a.Extra)}
	if a.AtAll {
		detail = append(detail, atAllFragment())
	}
	rows := [][]Fragment{
		{textFragment("节点: %s", a.Hostname)},
		{textFragment("IP: %s", a.Host)},
		{textFragment("优先级: %s", a.Priority)},
		{textFragment("类型: %s", a.Type)},
		detail,
		{textFragment("时间: %s", a.Time.In(n.loc).Format(timeLayout))},
	}
	return n.post(a.Group, newPostCard(title, rows))
}

// SendRecovery posts the recovery card when a reported issue clears.
func (n *Notifier) SendRecovery(a *Alert) error {
	title := fmt.Sprintf("【故障恢复】%s - %s", a.Title, a.Hostname)
	rows := [][]Fragment{
		{textFragment("节点: %s", a.Hostname)},
		{textFragment("IP: %s", a.Host)},
		{textFragment("已恢复故障类型: %s", a.Type)},
		{textFragment("恢复时间: %s", a.Time.In(n.loc).Format(timeLayout))},
	}
	return n.post(a.Group, newPostCard(title, rows))
}

// SendDuplicate posts the lightweight marker for a repeat failure
// inside the debounce window.
func (n *Notifier) SendDuplicate(a *Alert) error {
	title := fmt.Sprintf("【重复告警】%s - %s", a.Title, a.Hostname)
	rows := [][]Fragment{
		{textFragment("节点: %s", a.Hostname)},
		{textFragment("IP: %s", a.Host)},
		{textFragment("类型: %s (重复告警)", a.Type)},
		{textFragment("描述: %s", a.Extra)},
	}
	return n.post(a.Group, newPostCard(title, rows))
}

// SendDigest posts the daily P3 summary to the analytics group. An
// empty host list still produces an explicit all-clear card.
func (n *Notifier) SendDigest(at time.Time, hosts []DigestHost) error {
	title := fmt.Sprintf("P3级事件每日汇总报告 - %s", at.In(n.loc).Format(dateLayout))
	var rows [][]Fragment
	if len(hosts) == 0 {
		rows = append(rows, []Fragment{textFragment("过去24小时无新增或持续的P3级别事件。")})
	}
	for _, h := range hosts {
		rows = append(rows, []Fragment{textFragment("节点: %s", h.Hostname)})
		for _, line := range h.Lines {
			rows = append(rows, []Fragment{textFragment("  - %s", line)})
		}
	}
	return n.post(GroupAnalytics, newPostCard(title, rows))
}

func (n *Notifier) post(group string, card *postCard) error {
	url := n.urls[group]
	if url == "" {
		return errors.Errorf("no webhook url configured for group %s", group)
	}
	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(card).
		Post(url)
	if err != nil {
		return errors.Wrapf(err, "failed to post alert card to %s", group)
	}
	if !resp.IsSuccess() {
		return errors.Errorf("webhook %s returned status %d: %s", group, resp.StatusCode(), resp.String())
	}
	return nil
}
