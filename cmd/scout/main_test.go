package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCompetitors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr string
	}{
		{
			name: "bare array",
			body: `[{"name":"Golden Nails","address":"1 Main St, Columbus, OH"},{"name":"Luxury Nails Spa"}]`,
			want: []string{"Golden Nails", "Luxury Nails Spa"},
		},
		{
			name: "wrapped",
			body: `{"competitors":[{"name":"Golden Nails","website":"https://goldennails.com"}]}`,
			want: []string{"Golden Nails"},
		},
		{
			name:    "invalid entry",
			body:    `[{"address":"1 Main St"}]`,
			wantErr: "competitor 0",
		},
		{
			name:    "duplicate names",
			body:    `[{"name":"Golden Nails"},{"name":"Star Nails"},{"name":"Golden Nails"}]`,
			wantErr: `duplicate competitor name "Golden Nails"`,
		},
		{
			name:    "not json",
			body:    `name,address`,
			wantErr: "failed to decode input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "competitors.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			got, err := readCompetitors(path)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
