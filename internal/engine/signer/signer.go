// Package signer generates platform request signatures via an external
// JavaScript runtime.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// Config locates the signing script. Dir is an explicit base path; the signer
// never changes the process working directory to influence a call.
type Config struct {
	Dir     string
	Script  string
	NodeBin string
}

// Signature carries the headers the platform expects on signed requests.
type Signature struct {
	XS string `json:"x-s"`
	XT string `json:"x-t"`
}

// Signer shells out to Node to produce request signatures. Availability of
// the runtime is probed once and cached; an unavailable runtime surfaces as
// insight.ErrEngineUnavailable on every call.
type Signer struct {
	cfg      Config
	nodePath string

	checkOnce sync.Once
	checkErr  error
}

// New constructs a Signer. The runtime probe is deferred until first use so
// construction never fails.
func New(cfg Config) *Signer {
	if cfg.Script == "" {
		cfg.Script = "signer.js"
	}
	if cfg.NodeBin == "" {
		cfg.NodeBin = "node"
	}
	return &Signer{cfg: cfg}
}

// Ready reports whether the JS runtime and signing script are usable.
func (s *Signer) Ready() error {
	s.checkOnce.Do(func() {
		path, err := exec.LookPath(s.cfg.NodeBin)
		if err != nil {
			s.checkErr = fmt.Errorf("js runtime %q not found: %w", s.cfg.NodeBin, insight.ErrEngineUnavailable)
			return
		}
		s.nodePath = path
		script := filepath.Join(s.cfg.Dir, s.cfg.Script)
		if _, err := os.Stat(script); err != nil {
			s.checkErr = fmt.Errorf("signing script %q not found: %w", script, insight.ErrEngineUnavailable)
		}
	})
	return s.checkErr
}

// Sign produces signature headers for the given request path and credential.
func (s *Signer) Sign(ctx context.Context, apiPath string, credential string) (Signature, error) {
	if err := s.Ready(); err != nil {
		return Signature{}, err
	}

	cmd := exec.CommandContext(ctx, s.nodePath, s.cfg.Script, apiPath)
	cmd.Dir = s.cfg.Dir
	cmd.Stdin = bytes.NewBufferString(credential)

	out, err := cmd.Output()
	if err != nil {
		return Signature{}, fmt.Errorf("run signing script: %w", err)
	}

	var sig Signature
	if err := json.Unmarshal(bytes.TrimSpace(out), &sig); err != nil {
		return Signature{}, fmt.Errorf("decode signature output: %w", err)
	}
	if sig.XS == "" {
		return Signature{}, fmt.Errorf("signing script returned empty signature")
	}
	return sig, nil
}
