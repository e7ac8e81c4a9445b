package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "iso date with 24h time",
			date:  "2025-06-01",
			clock: "10:00",
			want:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "slash date",
			date:  "06/01/2025",
			clock: "14:30",
			want:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "twelve hour clock",
			date:  "2025-06-01",
			clock: "3:04 PM",
			want:  time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC),
		},
		{
			name:  "lowercase meridiem",
			date:  "2025-06-01",
			clock: "3 pm",
			want:  time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			date:  " 2025-06-01 ",
			clock: " 10:00 ",
			want:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "unparseable date",
			date:    "next tuesday",
			clock:   "10:00",
			wantErr: true,
		},
		{
			name:    "unparseable time",
			date:    "2025-06-01",
			clock:   "morning",
			wantErr: true,
		},
		{
			name:    "empty inputs",
			date:    "",
			clock:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStart(tt.date, tt.clock)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
