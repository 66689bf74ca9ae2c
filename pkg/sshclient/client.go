/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package sshclient

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/backoff"
	"github.com/ttone18/check/pkg/types"
)

const (
	connectRetries  = 3
	connectInterval = 5 * time.Second
	connectTimeout  = 10 * time.Second
	hostnameTimeout = 10 * time.Second
)

// Dial error classes. The class is the stable part of a system.ssh
// finding detail; the wrapped error keeps the raw cause.
const (
	ErrClassAuth              = "auth"
	ErrClassNoValidConnection = "no_valid_connection"
	ErrClassTimeout           = "timeout"
	ErrClassSSHInternal       = "ssh_internal"
	ErrClassUnknown           = "unknown"
)

// DialError is a classified connection failure.
type DialError struct {
	Class string
	Err   error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *DialError) Unwrap() error {
	return e.Err
}

// Classify returns the class of a Connect failure, or unknown for
// errors that did not come from Connect.
func Classify(err error) string {
	var de *DialError
	if errors.As(err, &de) {
		return de.Class
	}
	return ErrClassUnknown
}

// Client is one authenticated remote shell. A session is opened per
// command, so a single dead command cannot wedge the connection.
type Client interface {
	Run(command string, timeout time.Duration) types.RawPayload
	Hostname() (string, error)
	Close() error
}

type client struct {
	conn *ssh.Client
	node *types.NodeSpec
}

// Connect dials the node with a fixed retry policy. Authentication
// failures abort the remaining attempts since credentials will not
// improve on retry.
func Connect(node *types.NodeSpec) (Client, error) {
	config, err := buildClientConfig(node)
	if err != nil {
		return nil, &DialError{Class: ErrClassUnknown, Err: err}
	}

	var conn *ssh.Client
	err = backoff.CountRetry(func() error {
		var dialErr error
		conn, dialErr = ssh.Dial("tcp", node.Addr(), config)
		if dialErr == nil {
			return nil
		}
		classified := &DialError{Class: classifyDialError(dialErr), Err: dialErr}
		if classified.Class == ErrClassAuth {
			return backoff.Permanent(error(classified))
		}
		klog.Warningf("failed to dial %s: %v", node.Addr(), dialErr)
		return classified
	}, connectRetries, connectInterval)
	if err != nil {
		return nil, err
	}
	klog.V(4).Infof("connected to %s@%s", node.Username, node.Addr())
	return &client{conn: conn, node: node}, nil
}

func buildClientConfig(node *types.NodeSpec) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod
	if node.Password != "" {
		methods = append(methods, ssh.Password(node.Password))
	}
	if node.PrivateKeyPath != "" {
		key, err := os.ReadFile(node.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read private key %s", node.PrivateKeyPath)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse private key %s", node.PrivateKeyPath)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if len(methods) == 0 {
		return nil, errors.Errorf("node %s has neither password nor private key", node.Host)
	}
	return &ssh.ClientConfig{
		User:            node.Username,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}, nil
}

func classifyDialError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied") {
		return ErrClassAuth
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return ErrClassTimeout
	}
	switch {
	case strings.Contains(msg, "i/o timeout"):
		return ErrClassTimeout
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no route to host"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "connection reset by peer"):
		return ErrClassNoValidConnection
	case strings.Contains(msg, "ssh:"):
		return ErrClassSSHInternal
	default:
		return ErrClassUnknown
	}
}

// Run executes one command in a fresh session and captures its outcome.
// It never returns an error; failures are folded into the payload so
// every probe yields a parseable result.
func (c *client) Run(command string, timeout time.Duration) types.RawPayload {
	session, err := c.conn.NewSession()
	if err != nil {
		return types.RawPayload{Success: false, Error: fmt.Sprintf("Command execution exception: %v", err)}
	}
	defer func() {
		_ = session.Close()
	}()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err = session.Start(command); err != nil {
		return types.RawPayload{Success: false, Error: fmt.Sprintf("Command execution exception: %v", err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err = <-done:
	case <-time.After(timeout):
		_ = session.Signal(ssh.SIGKILL)
		return types.RawPayload{Success: false, Error: "timeout"}
	}

	if err == nil {
		return types.RawPayload{Success: true, Output: stdout.String()}
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		// Output is kept on failure; some parsers read the state string
		// a tool prints alongside its non-zero exit.
		return types.RawPayload{
			Success: false,
			Output:  stdout.String(),
			Error: fmt.Sprintf("ExitCode:%d, Stderr:'%s', Stdout:'%s'",
				exitErr.ExitStatus(), strings.TrimSpace(stderr.String()), strings.TrimSpace(stdout.String())),
		}
	}
	return types.RawPayload{Success: false, Error: fmt.Sprintf("Command execution exception: %v", err)}
}

// Hostname reads the remote hostname for display purposes.
func (c *client) Hostname() (string, error) {
	payload := c.Run("hostname", hostnameTimeout)
	if !payload.Success {
		return "", errors.Errorf("failed get hostname: %s", payload.Error)
	}
	return strings.Replace(payload.Output, "\n", "", -1), nil
}

func (c *client) Close() error {
	return c.conn.Close()
}
