package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchworks/lostandfound/game/model"
)

const goodConfig = `{
	"maps": [
		{
			"id": "town",
			"name": "Town",
			"roads": [
				{"x0": 0, "y0": 0, "x1": 10},
				{"x0": 10, "y0": 0, "y1": 10}
			],
			"buildings": [],
			"offices": [
				{"id": "o1", "x": 10, "y": 5, "offsetX": 5, "offsetY": 0}
			],
			"lootTypes": [
				{"name": "key", "value": 5}
			]
		}
	]
}`

const disconnectedConfig = `{
	"maps": [
		{
			"id": "islands",
			"name": "Islands",
			"roads": [
				{"x0": 0, "y0": 0, "x1": 5},
				{"x0": 20, "y0": 20, "x1": 25}
			],
			"buildings": [],
			"offices": [
				{"id": "o1", "x": 3, "y": 0, "offsetX": 5, "offsetY": 0}
			],
			"lootTypes": [
				{"name": "key", "value": 5}
			]
		}
	]
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateFileGood(t *testing.T) {
	result := validateFile(writeConfig(t, goodConfig))
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateFileMissing(t *testing.T) {
	result := validateFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateFileDisconnectedRoads(t *testing.T) {
	result := validateFile(writeConfig(t, disconnectedConfig))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "not connected")
}

func TestValidateFileOfficeOffRoads(t *testing.T) {
	const cfg = `{
		"maps": [
			{
				"id": "town",
				"name": "Town",
				"roads": [{"x0": 0, "y0": 0, "x1": 10}],
				"buildings": [],
				"offices": [{"id": "o1", "x": 5, "y": 8, "offsetX": 5, "offsetY": 0}],
				"lootTypes": [{"name": "key", "value": 5}]
			}
		]
	}`
	result := validateFile(writeConfig(t, cfg))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "off the road network")
}

func TestRoadsConnected(t *testing.T) {
	crossing := []model.Road{
		model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10),
		model.NewVerticalRoad(model.Point{X: 5, Y: -5}, 5),
	}
	assert.True(t, roadsConnected(crossing))

	apart := []model.Road{
		model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 5),
		model.NewHorizontalRoad(model.Point{X: 0, Y: 10}, 5),
	}
	assert.False(t, roadsConnected(apart))
}

func TestRoadsTouchAtCorner(t *testing.T) {
	a := model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10)
	b := model.NewVerticalRoad(model.Point{X: 10, Y: 0}, 10)
	assert.True(t, roadsTouch(a, b))
}
