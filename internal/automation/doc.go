// Package automation provides the Scene Registry.
//
// A scene is a named set of device actions, optionally triggered by an
// activation keyword. Scenes reference actions through the scene_actions
// join table; membership changes never create or delete actions.
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────┐
//	│                 Registry (registry.go)                 │
//	│  ┌──────────────┐    ┌──────────────────────────┐     │
//	│  │  Validation  │    │  Repository              │     │
//	│  │(validation.go)│   │  (repository.go)         │     │
//	│  │ name, status │    │  scenes, scene_actions   │     │
//	│  └──────────────┘    └──────────────────────────┘     │
//	│                              │                         │
//	│                              ▼                         │
//	│                 device.SQLiteActionRepository          │
//	│                 (linked action lookups)                │
//	└───────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Scene: name, optional activation keyword, status and linked actions
//   - SceneCreate / SceneUpdate: create payload and partial update
//   - Status: "inactive" or "active"
//
// # Usage
//
//	scenes := automation.NewRegistry(db)
//	night, err := scenes.CreateScene(ctx, automation.SceneCreate{Name: "Night"})
//	night, err = scenes.AddAction(ctx, night.ID, turnOn.ID)
//
// Adding an action that is already linked, or removing one that is not,
// returns the scene unchanged.
package automation
