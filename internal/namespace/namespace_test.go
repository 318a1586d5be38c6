package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	assert.Equal(t, "client42_report", Derive("client42", "report.pdf"))
	assert.Equal(t, "c1_notes", Derive("c1", "notes.txt"))
	assert.Equal(t, "c1_archive.2024", Derive("c1", "archive.2024.pdf"))
	assert.Equal(t, "c1_plain", Derive("c1", "plain"))
}

func TestDeriveIsDeterministic(t *testing.T) {
	first := Derive("client", "paper.pdf")
	second := Derive("client", "paper.pdf")
	assert.Equal(t, first, second)
}
