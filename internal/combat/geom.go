package combat

import (
	"math"

	"atb_battle/internal/config"
)

type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Len() float64    { return math.Hypot(a.X, a.Y) }
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Polar returns the offset at radius r and angle deg (degrees, 0 = +X).
func Polar(r, deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{X: r * math.Cos(rad), Y: r * math.Sin(rad)}
}

func vec(d config.Vec2Def) Vec2 { return Vec2{X: d.X, Y: d.Y} }

func (a Vec2) xy() []float64 { return []float64{a.X, a.Y} }
