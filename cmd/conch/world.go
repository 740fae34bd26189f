package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/halfgrid/conch/pkg/commands"
	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/script"
)

// World coordinate bounds. The scene wraps positions into the visible
// field when it renders, so out-of-range teleports are harmless.
const (
	worldWidth  = 80
	worldHeight = 24
)

// maxSpawnCount caps a single spawn command.
const maxSpawnCount = 100

// Entity is one object in the demo world.
type Entity struct {
	ID   string `lua:"id"`
	Name string `lua:"name"`
	X    int    `lua:"x"`
	Y    int    `lua:"y"`
}

// World is the demo state the console manipulates. A real host wires
// its own state the same way: command handlers and script module
// functions close over it.
type World struct {
	mu       sync.Mutex
	entities []Entity
}

func newWorld() *World {
	return &World{}
}

// Spawn adds one named entity at a random position.
func (w *World) Spawn(name string) Entity {
	e := Entity{
		ID:   uuid.NewString()[:8],
		Name: name,
		X:    rand.Intn(worldWidth),
		Y:    rand.Intn(worldHeight),
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, e)
	return e
}

// Despawn removes every entity with the given name and reports how
// many were removed.
func (w *World) Despawn(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	before := len(w.entities)
	w.entities = lo.Reject(w.entities, func(e Entity, _ int) bool {
		return e.Name == name
	})
	return before - len(w.entities)
}

// Teleport moves every entity with the given name and reports how many
// moved.
func (w *World) Teleport(name string, x, y int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	moved := 0
	for i := range w.entities {
		if w.entities[i].Name == name {
			w.entities[i].X, w.entities[i].Y = x, y
			moved++
		}
	}
	return moved
}

// Entities returns a snapshot of the world.
func (w *World) Entities() []Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Entity(nil), w.entities...)
}

// Count returns the number of live entities.
func (w *World) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entities)
}

// registerWorldCommands installs the demo world commands: spawn,
// despawn, teleport and entities.
func registerWorldCommands(t *commands.Table, world *World) error {
	cmds := []commands.Command{
		{
			Name:  "spawn",
			Usage: "spawn <name> [count]",
			Help:  "add entities to the demo world",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				if len(args) == 0 {
					return errors.New("spawn needs a name")
				}
				count := 1
				if len(args) > 1 {
					v, err := strconv.Atoi(args[1])
					if err != nil || v <= 0 {
						return fmt.Errorf("bad count %q", args[1])
					}
					count = v
				}
				if count > maxSpawnCount {
					return fmt.Errorf("count %d exceeds the spawn cap of %d", count, maxSpawnCount)
				}
				for i := 0; i < count; i++ {
					e := world.Spawn(args[0])
					out.Append(fmt.Sprintf("spawned %s #%s at (%d, %d)\n", e.Name, e.ID, e.X, e.Y))
				}
				return nil
			},
		},
		{
			Name:  "despawn",
			Usage: "despawn <name>",
			Help:  "remove entities by name",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				if len(args) == 0 {
					return errors.New("despawn needs a name")
				}
				n := world.Despawn(args[0])
				if n == 0 {
					return fmt.Errorf("no entity named %q", args[0])
				}
				out.Append(fmt.Sprintf("despawned %d\n", n))
				return nil
			},
		},
		{
			Name:  "teleport",
			Usage: "teleport <name> <x> <y>",
			Help:  "move entities by name",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				if len(args) != 3 {
					return errors.New("teleport needs a name and two coordinates")
				}
				x, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("bad x %q", args[1])
				}
				y, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("bad y %q", args[2])
				}
				n := world.Teleport(args[0], x, y)
				if n == 0 {
					return fmt.Errorf("no entity named %q", args[0])
				}
				out.Append(fmt.Sprintf("teleported %d to (%d, %d)\n", n, x, y))
				return nil
			},
		},
		{
			Name:  "entities",
			Usage: "entities",
			Help:  "list the demo world's entities",
			Handler: func(_ context.Context, _ []string, out console.Sink) error {
				entities := world.Entities()
				if len(entities) == 0 {
					out.Append("the world is empty\n")
					return nil
				}
				var b strings.Builder
				for _, e := range entities {
					fmt.Fprintf(&b, "%s  %-12s (%d, %d)\n", e.ID, e.Name, e.X, e.Y)
				}
				out.Append(b.String())
				return nil
			},
		},
	}

	for _, cmd := range cmds {
		if err := t.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// registerWorldModule exposes the world to Lua as the "game" module:
// game.spawn(name) returns the new entity as a table, game.despawn and
// game.teleport return the number of entities touched, game.entities()
// returns the world snapshot and game.count() its size.
func registerWorldModule(ctx context.Context, interp *script.Interp, world *World) error {
	exports := map[string]any{
		"spawn": script.Func(func(args []any) (any, error) {
			name, err := stringArg(args, 0, "spawn")
			if err != nil {
				return nil, err
			}
			return world.Spawn(name), nil
		}),
		"despawn": script.Func(func(args []any) (any, error) {
			name, err := stringArg(args, 0, "despawn")
			if err != nil {
				return nil, err
			}
			return world.Despawn(name), nil
		}),
		"teleport": script.Func(func(args []any) (any, error) {
			name, err := stringArg(args, 0, "teleport")
			if err != nil {
				return nil, err
			}
			x, err := intArg(args, 1, "teleport")
			if err != nil {
				return nil, err
			}
			y, err := intArg(args, 2, "teleport")
			if err != nil {
				return nil, err
			}
			return world.Teleport(name, x, y), nil
		}),
		"entities": script.Func(func(_ []any) (any, error) {
			return world.Entities(), nil
		}),
		"count": script.Func(func(_ []any) (any, error) {
			return world.Count(), nil
		}),
	}
	return interp.AddModule(ctx, "game", exports, script.DefaultRegistrationDepth)
}

func stringArg(args []any, i int, fn string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: argument %d is required", fn, i+1)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string", fn, i+1)
	}
	return s, nil
}

func intArg(args []any, i int, fn string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: argument %d is required", fn, i+1)
	}
	switch v := args[i].(type) {
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("%s: argument %d must be a number", fn, i+1)
}
