package config

// FlipCode
// gocv.Flip, Flip flips a 2D array around horizontal(0), vertical(1), or both axes(-1). -2 for nothing
type FlipCode int

const (
	Horizontal FlipCode = 0
	Vertical   FlipCode = 1
	Both       FlipCode = -1
	NoFlip     FlipCode = -2
)
