package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{name: "json info", cfg: Config{Level: "info", Format: "json"}},
		{name: "console debug", cfg: Config{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: Config{Level: "loud", Format: "json"}, expectErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg)
			if tc.expectErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
