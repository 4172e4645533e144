// Package config loads the world configuration for the lost-and-found game.
//
// The config package handles:
//   - Parsing the world JSON file (maps, roads, buildings, offices, loot types)
//   - Global defaults with per-map overrides for dog speed and bag capacity
//   - Loot generator and retirement settings
//   - Building the runtime world model from the parsed configuration
//
// Configuration Format:
//
// The whole world lives in one JSON file. Each map defines:
//   - Roads as axis-aligned segments (exactly one of x1/y1 per road)
//   - Buildings as decorative rectangles
//   - Lost-and-found offices with their sprite offsets
//   - Loot type descriptors, passed through verbatim to map clients
//
// Usage:
//
//	cfg, err := config.Load("data/config.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := cfg.BuildGame()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Validation:
//
// Load rejects files with no maps, maps without ids, names or roads, and
// roads that do not name exactly one end coordinate. BuildGame additionally
// rejects duplicate office ids within a map.
package config
