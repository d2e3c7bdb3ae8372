package routing

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	e164      = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	sipTarget = regexp.MustCompile(`^sips?:[^@\s]+@[^\s]+$`)
)

// Table is the route file: one entry per number we own.
//
//	numbers:
//	  - number: "+19195550000"
//	    workspace_id: ws-1
//	    action: connect
//	    destinations:
//	      - target: "+19195551212"
//	        weight: 3
//	      - target: "sip:desk@pbx.example.com"
//	        weight: 1
type Table struct {
	Numbers []NumberRoute `yaml:"numbers"`
}

// NumberRoute describes how calls to Number are handled.
type NumberRoute struct {
	Number       string        `yaml:"number"`
	WorkspaceID  string        `yaml:"workspace_id"`
	Action       Action        `yaml:"action"`
	CallerID     string        `yaml:"caller_id,omitempty"`
	Greeting     string        `yaml:"greeting,omitempty"`
	Destinations []Destination `yaml:"destinations,omitempty"`

	// Override forces calls to one target until it expires. It is applied
	// silently: the decision carries no reason.
	Override *Override `yaml:"override,omitempty"`
}

// Destination is a weighted dial target: an E.164 number or a sip: URI.
type Destination struct {
	Target string `yaml:"target"`
	Weight int    `yaml:"weight"`
}

type Override struct {
	Target string    `yaml:"target"`
	Until  time.Time `yaml:"until"`
}

func validTarget(v any) error {
	s, _ := v.(string)
	if s == "" || e164.MatchString(s) || sipTarget.MatchString(s) {
		return nil
	}
	return fmt.Errorf("must be an E.164 number or sip: URI")
}

func (d Destination) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Target, validation.Required, validation.By(validTarget)),
		validation.Field(&d.Weight, validation.Required, validation.Min(1)),
	)
}

func (o Override) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Target, validation.Required, validation.By(validTarget)),
		validation.Field(&o.Until, validation.Required),
	)
}

func (r NumberRoute) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Number, validation.Required, validation.Match(e164)),
		validation.Field(&r.WorkspaceID, validation.Required),
		validation.Field(&r.Action, validation.Required, validation.In(ActionConnect, ActionReject, ActionHangup)),
		validation.Field(&r.CallerID, validation.Match(e164)),
		validation.Field(&r.Destinations, validation.When(r.Action == ActionConnect, validation.Required)),
		validation.Field(&r.Override),
	)
}

// Validate checks every entry and rejects numbers listed twice.
func (t Table) Validate() error {
	errs := validation.Errors{}
	seen := make(map[string]int, len(t.Numbers))
	for i, r := range t.Numbers {
		key := fmt.Sprintf("numbers[%d]", i)
		if err := r.Validate(); err != nil {
			errs[key] = err
			continue
		}
		if j, dup := seen[r.Number]; dup {
			errs[key] = fmt.Errorf("number %s already listed at numbers[%d]", r.Number, j)
			continue
		}
		seen[r.Number] = i
	}
	return errs.Filter()
}

// ParseTable decodes and validates a route file.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("routing: parse table: %w", err)
	}
	for i := range t.Numbers {
		t.Numbers[i].Number = strings.TrimSpace(t.Numbers[i].Number)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("routing: invalid table: %w", err)
	}
	return &t, nil
}

// LoadTable reads the route file at path from fsys.
func LoadTable(fsys afero.Fs, path string) (*Table, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("routing: read %s: %w", path, err)
	}
	return ParseTable(data)
}

// SaveTable validates t and writes it to path.
func SaveTable(fsys afero.Fs, path string, t *Table) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("routing: invalid table: %w", err)
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}
