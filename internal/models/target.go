package models

import (
	"fmt"
	"time"
)

// Classification is the engagement category a target belongs to
type Classification string

const (
	ClassStandalone      Classification = "standalone"
	ClassActiveDirectory Classification = "active_directory"
	ClassSingle          Classification = "single"
)

// Target is one host under assessment
type Target struct {
	Name           string         `json:"name" yaml:"name"`
	IP             string         `json:"ip" yaml:"ip"`
	Classification Classification `json:"classification" yaml:"classification"`
	DomainSuffix   string         `json:"domain_suffix" yaml:"domain_suffix"`
}

// FQDN returns the name registered in the hosts file, e.g. "dc01.oscp"
func (t Target) FQDN() string {
	if t.DomainSuffix == "" {
		return t.Name
	}
	return t.Name + "." + t.DomainSuffix
}

// DirName returns the per-target directory name, "<name>_<ip>"
func (t Target) DirName() string {
	return fmt.Sprintf("%s_%s", t.Name, t.IP)
}

// DeploymentKind distinguishes batch and single-target runs
type DeploymentKind string

const (
	KindMulti  DeploymentKind = "multi"
	KindSingle DeploymentKind = "single"
)

// Deployment records one provisioning run
type Deployment struct {
	ID          string            `json:"id"`
	Kind        DeploymentKind    `json:"kind"`
	Root        string            `json:"root"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Status      Status            `json:"status"`
	Targets     []Target          `json:"targets,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// IngressRecord tracks a background file server spawned by this tool
type IngressRecord struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	Dir       string    `json:"dir"`
	StartedAt time.Time `json:"started_at"`
}
