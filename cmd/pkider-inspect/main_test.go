package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/core"
)

func TestDERBlocks(t *testing.T) {
	raw := []byte{0x30, 0x03, 0x02, 0x01, 0x05}

	blocks := derBlocks(raw)
	require.Len(t, blocks, 1)
	assert.Equal(t, "DER", blocks[0].label)
	assert.Equal(t, raw, blocks[0].der)

	chain := append(core.EncodePEM(raw, core.CertificateLabel), core.EncodePEM(raw, core.CSRLabel)...)
	blocks = derBlocks(chain)
	require.Len(t, blocks, 2)
	assert.Equal(t, core.CertificateLabel, blocks[0].label)
	assert.Equal(t, core.CSRLabel, blocks[1].label)
	assert.Equal(t, raw, blocks[1].der)
}
