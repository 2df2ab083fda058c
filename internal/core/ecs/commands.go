package ecs

import "go.uber.org/zap"

// Spawn allocates count fresh entities and returns them in request order.
// Despawned slots are reused lowest index first; the mark only grows for
// entities that no despawned slot could satisfy. Every returned entity has
// Spawned present and every other component absent.
func (w *World) Spawn(count int) []Entity {
	out := make([]Entity, 0, max(count, 0))
	from := Entity(0)
	reused := 0
	for i := 0; i < count; i++ {
		e, ok := w.nextDespawned(from)
		if ok {
			w.ClearEntity(e)
			reused++
		} else {
			e = w.lastEntity
			w.lastEntity++
			w.ResizeComponents()
		}
		w.spawned.Set(e, Spawned{})
		from = e + 1
		out = append(out, e)
		w.observer.EntitySpawned(e, ok)
	}
	if count > 0 {
		w.log.Debug("entities spawned",
			zap.Int("count", count),
			zap.Int("reused", reused),
			zap.Int("last_entity", int(w.lastEntity)),
		)
	}
	return out
}

func (w *World) nextDespawned(from Entity) (Entity, bool) {
	for e := from; e < w.lastEntity; e++ {
		if !w.spawned.Has(e) {
			return e, true
		}
	}
	return 0, false
}

// Despawn clears the Spawned marker of each entity and of all its
// descendants. Other components keep their values until the slot is reused.
// Entities that are not spawned, or out of range, are skipped entirely.
func (w *World) Despawn(entities ...Entity) {
	for _, e := range entities {
		if !w.IsSpawned(e) {
			continue
		}
		w.despawnOne(e, false)
		for _, d := range Descendants(w, e) {
			w.despawnOne(d, true)
		}
	}
}

func (w *World) despawnOne(e Entity, cascaded bool) {
	w.spawned.Clear(e)
	w.generations[e]++
	w.observer.EntityDespawned(e, cascaded)
	w.log.Debug("entity despawned", zap.Int("entity", int(e)), zap.Bool("cascaded", cascaded))
}

// QueueDespawn defers a despawn until FlushDespawns, so systems can request
// one while a pass is walking the streams.
func (w *World) QueueDespawn(e Entity) {
	w.despawnQueue = append(w.despawnQueue, e)
}

// PendingDespawns returns the number of queued despawns.
func (w *World) PendingDespawns() int { return len(w.despawnQueue) }

// FlushDespawns despawns all queued entities in queue order.
// Called by CleanupSystem at the end of each tick.
func (w *World) FlushDespawns() {
	if len(w.despawnQueue) == 0 {
		return
	}
	w.Despawn(w.despawnQueue...)
	w.despawnQueue = w.despawnQueue[:0]
}
