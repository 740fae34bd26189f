package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halfgrid/conch/pkg/commands"
	"github.com/halfgrid/conch/pkg/script"
)

func TestWorld_SpawnAndDespawn(t *testing.T) {
	w := newWorld()

	for i := 0; i < 3; i++ {
		e := w.Spawn("orc")
		assert.Equal(t, "orc", e.Name)
		assert.Len(t, e.ID, 8)
	}
	w.Spawn("elf")

	assert.Equal(t, 4, w.Count())
	assert.Equal(t, 3, w.Despawn("orc"))
	assert.Equal(t, 1, w.Count())
	assert.Equal(t, 0, w.Despawn("orc"))
}

func TestWorld_Teleport(t *testing.T) {
	w := newWorld()
	w.Spawn("orc")
	w.Spawn("orc")
	w.Spawn("elf")

	assert.Equal(t, 2, w.Teleport("orc", 5, 6))

	for _, e := range w.Entities() {
		if e.Name == "orc" {
			assert.Equal(t, 5, e.X)
			assert.Equal(t, 6, e.Y)
		}
	}
}

func TestWorld_EntitiesReturnsSnapshot(t *testing.T) {
	w := newWorld()
	w.Spawn("orc")

	snapshot := w.Entities()
	snapshot[0].Name = "mutated"

	assert.Equal(t, "orc", w.Entities()[0].Name)
}

func newWorldTable(t *testing.T) (*commands.Table, *World) {
	t.Helper()
	table := commands.NewTable(commands.WithEcho(false))
	t.Cleanup(table.Close)
	world := newWorld()
	require.NoError(t, registerWorldCommands(table, world))
	return table, world
}

func runTableCommand(t *testing.T, table *commands.Table, line string) string {
	t.Helper()
	sink := &recordingSink{}
	table.Execute(sink, line)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, table.Flush(ctx))
	return sink.String()
}

func TestWorldCommands_Spawn(t *testing.T) {
	table, world := newWorldTable(t)

	out := runTableCommand(t, table, "spawn orc 3")

	assert.Equal(t, 3, world.Count())
	assert.Equal(t, 3, strings.Count(out, "spawned orc #"))
}

func TestWorldCommands_SpawnRejectsBadInput(t *testing.T) {
	table, world := newWorldTable(t)

	assert.Contains(t, runTableCommand(t, table, "spawn"), "spawn: spawn needs a name")
	assert.Contains(t, runTableCommand(t, table, "spawn orc weep"), `spawn: bad count "weep"`)
	assert.Contains(t, runTableCommand(t, table, "spawn orc 9000"), "exceeds the spawn cap")
	assert.Equal(t, 0, world.Count())
}

func TestWorldCommands_TeleportAndEntities(t *testing.T) {
	table, world := newWorldTable(t)

	assert.Contains(t, runTableCommand(t, table, "entities"), "the world is empty")

	runTableCommand(t, table, "spawn orc")
	out := runTableCommand(t, table, "teleport orc 5 6")
	assert.Contains(t, out, "teleported 1 to (5, 6)")

	e := world.Entities()[0]
	assert.Equal(t, 5, e.X)
	assert.Equal(t, 6, e.Y)

	listing := runTableCommand(t, table, "entities")
	assert.Contains(t, listing, e.ID)
	assert.Contains(t, listing, "orc")
}

func TestWorldCommands_DespawnUnknownName(t *testing.T) {
	table, _ := newWorldTable(t)

	assert.Contains(t, runTableCommand(t, table, "despawn ghost"), `despawn: no entity named "ghost"`)
}

func TestWorldModule_Lua(t *testing.T) {
	interp := script.New(script.WithEcho(false))
	t.Cleanup(interp.Close)
	world := newWorld()
	ctx := context.Background()
	require.NoError(t, registerWorldModule(ctx, interp, world))

	sink := &recordingSink{}
	interp.Execute(sink, `e = game.spawn("orc")`)
	interp.Execute(sink, `print(e.name, #e.id, game.count())`)
	interp.Execute(sink, `print(#game.entities())`)
	interp.Execute(sink, `print(game.teleport("orc", 5, 6))`)
	interp.Execute(sink, `print(game.despawn("orc"))`)

	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, interp.Flush(flushCtx))

	assert.Equal(t, "orc\t8\t1\n1\n1\n1\n", sink.String())
	assert.Equal(t, 0, world.Count())
}

func TestWorldModule_ArgumentErrors(t *testing.T) {
	interp := script.New(script.WithEcho(false))
	t.Cleanup(interp.Close)
	ctx := context.Background()
	require.NoError(t, registerWorldModule(ctx, interp, newWorld()))

	sink := &recordingSink{}
	interp.Execute(sink, `game.spawn()`)
	interp.Execute(sink, `game.teleport("orc", "east", 2)`)

	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, interp.Flush(flushCtx))

	out := sink.String()
	assert.Contains(t, out, "spawn: argument 1 is required")
	assert.Contains(t, out, "teleport: argument 2 must be a number")
}
