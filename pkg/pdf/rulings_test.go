package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRulings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []LineObject
	}{
		{
			name:    "stroked line",
			content: "0.5 w 10 20 m 110 20 l S",
			want:    []LineObject{{X0: 10, Y0: 20, X1: 110, Y1: 20, Width: 0.5}},
		},
		{
			name:    "unpainted path is discarded",
			content: "10 20 m 110 20 l n",
		},
		{
			name:    "diagonal is ignored",
			content: "10 20 m 110 120 l S",
		},
		{
			name:    "hairline rectangle becomes its centre line",
			content: "10 100 200 0.5 re f",
			want:    []LineObject{{X0: 10, Y0: 100.25, X1: 210, Y1: 100.25, Width: 1}},
		},
		{
			name:    "transform applies inside q and is restored by Q",
			content: "q 1 0 0 1 50 50 cm 0 0 m 10 0 l S Q 0 0 m 0 10 l S",
			want: []LineObject{
				{X0: 50, Y0: 50, X1: 60, Y1: 50, Width: 1},
				{X0: 0, Y0: 0, X1: 0, Y1: 10, Width: 1},
			},
		},
		{
			name:    "strings and names do not leak operands",
			content: "BT /F1 12 Tf (10 20 m) Tj ET 0 0 m 5 0 l S",
			want:    []LineObject{{X0: 0, Y0: 0, X1: 5, Y1: 0, Width: 1}},
		},
		{
			name:    "inline image is skipped",
			content: "BI /W 2 /H 2 ID \x00\x01re\xff EI 0 0 m 0 7 l S",
			want:    []LineObject{{X0: 0, Y0: 0, X1: 0, Y1: 7, Width: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanRulings([]byte(tt.content))
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i].X0, got[i].X0, 1e-9)
				assert.InDelta(t, tt.want[i].Y0, got[i].Y0, 1e-9)
				assert.InDelta(t, tt.want[i].X1, got[i].X1, 1e-9)
				assert.InDelta(t, tt.want[i].Y1, got[i].Y1, 1e-9)
				assert.InDelta(t, tt.want[i].Width, got[i].Width, 1e-9)
			}
		})
	}
}

func TestRectangleEdges(t *testing.T) {
	got := scanRulings([]byte("10 10 100 50 re S"))
	require.Len(t, got, 4)

	h, v := ConsolidateTableLines(got, 1)
	assert.Len(t, h, 2)
	assert.Len(t, v, 2)
}

func TestConsolidateTableLines(t *testing.T) {
	lines := []LineObject{
		{X0: 0, Y0: 10, X1: 50, Y1: 10},
		{X0: 50, Y0: 10.2, X1: 100, Y1: 10.2},
		{X0: 100, Y0: 10, X1: 0, Y1: 10},
		{X0: 20, Y0: 0, X1: 20, Y1: 30},
		{X0: 0, Y0: 0, X1: 30, Y1: 30},
	}

	h, v := ConsolidateTableLines(DeduplicateLines(lines), 1)
	require.Len(t, h, 1)
	assert.Equal(t, 0.0, h[0].X0)
	assert.Equal(t, 100.0, h[0].X1)
	require.Len(t, v, 1)
	assert.Equal(t, 20.0, v[0].X0)
}

func TestClusterPositions(t *testing.T) {
	assert.Nil(t, clusterPositions(nil, 3))
	assert.Equal(t, []float64{10, 50.5}, clusterPositions([]float64{50, 10, 51, 11, 9}, 3))
}
