package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxScaleRoundTrip(t *testing.T) {
	b := Box{X1: 10, Y1: 20, X2: 110, Y2: 220}
	scaled := b.Scale(1920.0/612.0, 1080.0/792.0)
	back := scaled.Scale(612.0/1920.0, 792.0/1080.0)
	assert.Equal(t, b, back)
}

func TestBoxClamp(t *testing.T) {
	b := Box{X1: -5, Y1: 10, X2: 2000, Y2: 1100}
	c := b.Clamp(1920, 1080)
	assert.Equal(t, Box{X1: 0, Y1: 10, X2: 1920, Y2: 1080}, c)
}

func TestBoxIoU(t *testing.T) {
	a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
	assert.InDelta(t, 1.0, a.IoU(a), 1e-9)

	b := Box{X1: 5, Y1: 0, X2: 15, Y2: 10}
	// intersection 50, union 150
	assert.InDelta(t, 50.0/150.0, a.IoU(b), 1e-9)

	c := Box{X1: 20, Y1: 20, X2: 30, Y2: 30}
	assert.Zero(t, a.IoU(c))
}

func TestBoxUnionContains(t *testing.T) {
	a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := Box{X1: 5, Y1: 5, X2: 20, Y2: 8}
	u := a.Union(b)
	assert.Equal(t, Box{X1: 0, Y1: 0, X2: 20, Y2: 10}, u)
	assert.True(t, u.Contains(15, 9))
	assert.False(t, a.Contains(15, 9))
}

func TestDetectionPrimary(t *testing.T) {
	det := Detection{Classes: []string{ClassBodyText, ClassOther}, Scores: []float64{0.8, 0.2}}
	cls, score := det.Primary()
	assert.Equal(t, ClassBodyText, cls)
	assert.Equal(t, 0.8, score)

	cls, score = Detection{}.Primary()
	assert.Empty(t, cls)
	assert.Zero(t, score)
}

func TestWorkItemKey(t *testing.T) {
	item := WorkItem{Page: PageImage{DocumentName: "paper.pdf", PageNumber: 3}}
	assert.Equal(t, "paper.pdf_3", item.Key())
}
