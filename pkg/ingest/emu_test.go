package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMUParser_SemicolonDelimited(t *testing.T) {
	data := "TIME;RPM;Boost\n" +
		"s;rpm;psi\n" +
		"0.0;900;0.0\n" +
		"0.1;1200;2.5\n" +
		"0.2;1500;5.0\n"
	r := bytes.NewReader([]byte(data))

	p := &EMUParser{}
	require.True(t, p.Sniff([]byte(data)))

	log, err := p.Parse(context.Background(), r, Options{})
	require.NoError(t, err)
	require.NoError(t, log.Validate())

	assert.InDeltaSlice(t, []float64{0, 0.1, 0.2}, log.Time, 1e-9)
	assert.Equal(t, 2, log.ChannelCount())
}

func TestEMUParser_TabDelimited(t *testing.T) {
	data := "TIME\tRPM\n" +
		"s\trpm\n" +
		"0.0\t900\n" +
		"0.1\t1200\n"
	r := bytes.NewReader([]byte(data))

	p := &EMUParser{}
	require.True(t, p.Sniff([]byte(data)))

	log, err := p.Parse(context.Background(), r, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, log.RecordCount())
}

func TestEMUParser_MissingTimeColumnIsUnsupported(t *testing.T) {
	data := "RPM;Boost\nrpm;psi\n900;0.0\n"
	r := bytes.NewReader([]byte(data))

	p := &EMUParser{}
	_, err := p.Parse(context.Background(), r, Options{})
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}
