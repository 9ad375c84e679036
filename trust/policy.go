// Package trust implements the static allow-list trust policy:
// warn/enforce modes and atomic hot reload from a JSON file.
package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// Mode is the trust-policy enforcement level.
type Mode string

const (
	ModeWarn    Mode = "warn"
	ModeEnforce Mode = "enforce"
)

// config is the immutable snapshot swapped atomically on reload.
type config struct {
	Mode  Mode
	Allow map[string]struct{}
}

// fileFormat mirrors the on-disk JSON shape: {"mode":..., "allow":[...]}.
type fileFormat struct {
	Mode  Mode     `json:"mode"`
	Allow []string `json:"allow"`
}

// Policy is the reloadable trust gate. A concurrent reader always sees
// either the previous complete config or the new complete config, never
// a partial state, because reload swaps a single atomic pointer.
type Policy struct {
	path string
	cur  atomic.Pointer[config]
}

// NewPolicy loads path and returns a ready Policy.
func NewPolicy(path string) (*Policy, error) {
	p := &Policy{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the trust file and atomically swaps it in.
func (p *Policy) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read trust config %s: %w", p.path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("parse trust config %s: %w", p.path, err)
	}
	if ff.Mode != ModeWarn && ff.Mode != ModeEnforce {
		return fmt.Errorf("trust config %s: invalid mode %q", p.path, ff.Mode)
	}

	allow := make(map[string]struct{}, len(ff.Allow))
	for _, kid := range ff.Allow {
		allow[kid] = struct{}{}
	}

	p.cur.Store(&config{Mode: ff.Mode, Allow: allow})
	return nil
}

// Mode returns the currently active enforcement mode.
func (p *Policy) Mode() Mode {
	return p.cur.Load().Mode
}

// IsKeyTrusted reports whether key_id is on the allow-list.
func (p *Policy) IsKeyTrusted(keyID string) (trusted bool, reason string) {
	cfg := p.cur.Load()
	if _, ok := cfg.Allow[keyID]; ok {
		return true, ""
	}
	return false, "key_not_allowlisted"
}

// Gate applies the publish/edges trust-gating state machine: in
// enforce mode an untrusted key_id is rejected; in warn mode the call
// proceeds with trusted=false recorded.
//
// Gate only adjudicates trust, not signature validity; callers check
// the signature before calling it.
func (p *Policy) Gate(keyID string) (allow bool, trusted bool, reason string) {
	trusted, reason = p.IsKeyTrusted(keyID)
	if trusted {
		return true, true, ""
	}
	if p.Mode() == ModeEnforce {
		return false, false, reason
	}
	return true, false, reason
}

// Bootstrap writes an initial trust file if path does not yet exist,
// so a fresh data directory starts with a complete, valid policy.
func Bootstrap(path string, mode Mode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	ff := fileFormat{Mode: mode, Allow: []string{}}
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
