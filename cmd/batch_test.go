package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func Test_BuildJobsFromBatch(t *testing.T) {
	raw := `
streams:
  - link: https://cdn.example.com/stream?sig=a
    id: vid-a
    size: 1000
  - link: https://cdn.example.com/stream?sig=b
    op: /tmp/b.mp4
  - link: ""
  - link: https://cdn.example.com/stream?sig=c
`
	var batchFile BatchFile
	require.NoError(t, yaml.Unmarshal([]byte(raw), &batchFile))

	jobs := buildJobsFromBatch(batchFile)
	require.Len(t, jobs, 3, "entries without a link are skipped")

	assert.Equal(t, "vid-a", jobs[0].StreamID)
	assert.Equal(t, uint64(1000), jobs[0].LengthHint)

	assert.Equal(t, "/tmp/b.mp4", jobs[1].OutputPath)
	assert.Empty(t, jobs[1].StreamID, "explicit output path needs no identifier")

	assert.Equal(t, "stream", jobs[2].StreamID, "default identifier when neither id nor op is set")
}
