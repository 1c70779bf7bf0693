package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArea(t *testing.T) {
	a := Area{X0: 4.5, X1: 5.5, DeltaY: 10}
	assert.InDelta(t, 1.0, a.DeltaX(), 1e-12)
	assert.NoError(t, a.Validate())

	assert.Error(t, Area{X0: 2, X1: 1}.Validate())
	assert.Error(t, Area{X0: 1, X1: 1}.Validate())
	assert.Error(t, Area{X0: 0, X1: 1, DeltaY: -1}.Validate())
}

func TestPolygonSet(t *testing.T) {
	p := PolygonSet{X0: 2, Width: 0.5, Count: 4, DeltaY: 3}
	assert.NoError(t, p.Validate())

	third := p.Polygon(2)
	assert.InDelta(t, 3.0, third.X0, 1e-12)
	assert.InDelta(t, 3.5, third.X1, 1e-12)
	assert.Equal(t, 3.0, third.DeltaY)

	assert.Error(t, PolygonSet{Width: 1}.Validate())
	assert.Error(t, PolygonSet{Count: 1}.Validate())
}
