package handlers

import (
	"github.com/sevkagr/foodlog/internal/points"
)

// Engine is the shared scoring engine, wired in main before routes are served.
var Engine *points.Engine
