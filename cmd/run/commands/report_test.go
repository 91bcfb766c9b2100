package commands

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/runfile/pkg/runner"
)

func TestReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "usage", err: ErrUsage, want: "usage: run <filename>\n"},
		{
			name: "unsupported",
			err:  fmt.Errorf("%w: xyz", runner.ErrUnsupportedExtension),
			want: "error: unsupported file type: xyz\n",
		},
		{name: "plain", err: errors.New("boom"), want: "error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			assert.Equal(t, ExitFailure, Report(&buf, tt.err, false))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReport_Colorized(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	Report(&buf, errors.New("boom"), true)
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}
