package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_DisabledIsNoop(t *testing.T) {
	p := NewProgress(10, "test", false)
	assert.Nil(t, p.bar)

	cb := p.Callback()
	cb(1, 10, "first")
	p.Update(2, "second")
	p.Finish()
}

func TestProgress_DescriptionTruncation(t *testing.T) {
	p := &Progress{description: "textures/environment/forest/grass_01.dds"}
	got := p.currentDescription()
	assert.Len(t, got, descLength)
	assert.Equal(t, "..", got[:2])
	assert.Equal(t, "grass_01.dds", got[len(got)-12:])
}
