package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legamerdc/epollserver/capture"
)

func TestDumpCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.zst")
	w, err := capture.Create(path, zstd.SpeedFastest)
	require.NoError(t, err)
	require.NoError(t, w.Append(1, []byte("hi\n\x00")))
	require.NoError(t, w.Append(2, nil))
	require.NoError(t, w.Close())

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dump", path})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "conn=1 len=4 \"hi\\n\\x00\"\nconn=2 len=0 \"\"\n2 record(s)\n", out.String())
}

func TestDumpRejectsOversizeRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.zst")
	w, err := capture.Create(path, zstd.SpeedFastest)
	require.NoError(t, err)
	require.NoError(t, w.Append(1, bytes.Repeat([]byte("x"), 64)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Error(t, dump(&bytes.Buffer{}, f, 8))
}

func TestSendValidatesArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"send", "only-name"})
	assert.Error(t, cmd.Execute())

	cmd.SetArgs([]string{"send", "name", "msg", "--repeat", "0"})
	assert.Error(t, cmd.Execute())
}
