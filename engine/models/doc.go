// Package models provides the concrete process nodes a scenario is built
// from: storage-discharge reservoirs, soil-moisture runoff columns, and
// channel routing reaches. Each model embeds engine.NodeCore, declares its
// ports and recordables at construction, and implements the Run phase; the
// scheduler drives everything else.
package models
