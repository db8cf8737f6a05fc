package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetNaming(t *testing.T) {
	tgt := Target{Name: "dc01", IP: "10.10.10.10", Classification: ClassActiveDirectory, DomainSuffix: "oscp"}
	assert.Equal(t, "dc01.oscp", tgt.FQDN())
	assert.Equal(t, "dc01_10.10.10.10", tgt.DirName())

	bare := Target{Name: "box", IP: "10.0.0.1"}
	assert.Equal(t, "box", bare.FQDN())
}
