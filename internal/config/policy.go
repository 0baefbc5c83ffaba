package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // timezone database for minimal images

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Policy holds the scheduling and inventory rules.  Every field has a
// default so the file is optional.
type Policy struct {
	// HorizonDays is the number of calendar days, today included, the
	// Expander keeps materialized.
	HorizonDays int `yaml:"horizon_days" validate:"gt=0,lte=62"`
	// DefaultCapacity replaces a missing trip capacity.
	DefaultCapacity int `yaml:"default_capacity" validate:"gt=0"`
	// Timezone decides which calendar day "today" is.
	Timezone    string      `yaml:"timezone" validate:"required"`
	ChannelTags ChannelTags `yaml:"channel_tags"`
	// Directory seeds companies and agencies for the memory store driver.
	Directory Directory `yaml:"directory"`

	loc *time.Location
}

// ChannelTags are the fixed channel segments of reference codes.
type ChannelTags struct {
	Counter string `yaml:"counter" validate:"required,alpha,uppercase,max=4"`
	Online  string `yaml:"online" validate:"required,alpha,uppercase,max=4"`
}

// Directory lists seed companies and agencies.
type Directory struct {
	Companies []SeedCompany `yaml:"companies" validate:"dive"`
	Agencies  []SeedAgency  `yaml:"agencies" validate:"dive"`
}

// SeedCompany is a company entry of Directory.
type SeedCompany struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	Code string `yaml:"code" validate:"omitempty,alpha,max=3"`
}

// SeedAgency is an agency entry of Directory.
type SeedAgency struct {
	ID        string `yaml:"id" validate:"required"`
	CompanyID string `yaml:"company_id" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Phone     string `yaml:"phone"`
}

// DefaultPolicy returns the policy used when no file is configured.
func DefaultPolicy() Policy {
	return Policy{
		HorizonDays:     8,
		DefaultCapacity: 70,
		Timezone:        "UTC",
		ChannelTags:     ChannelTags{Counter: "GUI", Online: "WEB"},
		loc:             time.UTC,
	}
}

// LoadPolicy reads a YAML policy from path on top of DefaultPolicy and
// validates it.  An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

func (p *Policy) validate() error {
	if err := validator.New().Struct(p); err != nil {
		return err
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return err
	}
	p.loc = loc
	return nil
}

// Location returns the timezone of Timezone, UTC when unresolved.
func (p Policy) Location() *time.Location {
	if p.loc == nil {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
		return time.UTC
	}
	return p.loc
}
