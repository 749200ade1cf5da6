package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"gopkg.in/yaml.v3"
)

// ErrEmptyFlow is returned for a flow without steps.
var ErrEmptyFlow = errors.New("flow has no steps")

// LoadFlow reads and validates a flow file. The flow name defaults to the
// file name without extension.
func LoadFlow(path string) (*flow.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := ParseFlow(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f, nil
}

// ParseFlow decodes and validates a flow definition.
func ParseFlow(data []byte) (*flow.Flow, error) {
	var f flow.Flow
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing flow: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, ErrEmptyFlow
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// rulesFile accepts either a bare list of rules or a document with a
// top-level rules key.
type rulesFile struct {
	Rules []rules.Config `yaml:"rules"`
}

// LoadRules reads and validates a rule list file.
func LoadRules(path string) ([]rules.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfgs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfgs, nil
}

// ParseRules decodes and validates a rule list.
func ParseRules(data []byte) ([]rules.Config, error) {
	var cfgs []rules.Config
	if err := decodeStrict(data, &cfgs); err != nil {
		var doc rulesFile
		if docErr := decodeStrict(data, &doc); docErr != nil {
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
		cfgs = doc.Rules
	}

	var errs []error
	for i, cfg := range cfgs {
		if err := rules.ValidateConfig(cfg, nil); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i+1, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfgs, nil
}

// decodeStrict decodes YAML (and therefore JSON) rejecting unknown keys.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("document is empty")
		}
		return err
	}
	return nil
}
