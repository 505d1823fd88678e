package main

// LockColor indexes the palette shared by doors and keys.
type LockColor uint8

const (
	LockCrimson LockColor = iota
	LockGold
	LockTeal
	LockViolet
	lockColorCount
)

// lockColorHex maps palette entries to render colors.
var lockColorHex = [lockColorCount]string{"#ff3344", "#ffcc22", "#22ccbb", "#aa55ff"}

// Key opens every door of its lock color. A taken key never returns.
type Key struct {
	ID    string
	X, Y  float64
	Color LockColor
	Taken bool
}

// ItemType selects an entry of the item catalog.
type ItemType uint8

const (
	ItemRepair ItemType = iota
	ItemOvershield
	ItemCoolant
	ItemSalvage
)

// Item is a floor pickup. Natural items respawn as fresh records after a
// delay; enemy drops are one-time.
type Item struct {
	ID      string
	X, Y    float64
	Type    ItemType
	Taken   bool
	Natural bool
}

// ItemDef describes one catalog entry and its pickup effect.
type ItemDef struct {
	Type     ItemType
	Name     string
	Heal     int     // hit points restored
	Shield   float64 // seconds of overshield
	Recharge float64 // seconds credited to the ability timer
	Score    int
	DropOK   bool // eligible to roll on enemy drops
	Color    string
}

// itemCatalog is the full set of spawnable items.
var itemCatalog = []ItemDef{
	{Type: ItemRepair, Name: "repair kit", Heal: 25, DropOK: true, Color: "#66ff88"},
	{Type: ItemOvershield, Name: "overshield", Shield: 3.0, Color: "#66ccff"},
	{Type: ItemCoolant, Name: "coolant", Recharge: 2.0, Color: "#e8f4ff"},
	{Type: ItemSalvage, Name: "salvage", Score: 25, DropOK: true, Color: "#ffcc44"},
}

// itemDefs provides lookup by type.
var itemDefs map[ItemType]ItemDef

func init() {
	itemDefs = make(map[ItemType]ItemDef, len(itemCatalog))
	for _, def := range itemCatalog {
		itemDefs[def.Type] = def
	}
}

// rollItemType picks a catalog entry, restricted to drop-eligible entries for
// enemy drops.
func rollItemType(r *Rand, drop bool) ItemType {
	if !drop {
		return itemCatalog[r.Intn(len(itemCatalog))].Type
	}
	var pool []ItemType
	for _, def := range itemCatalog {
		if def.DropOK {
			pool = append(pool, def.Type)
		}
	}
	return pool[r.Intn(len(pool))]
}

// applyItem grants an item's effect to the player.
func (w *World) applyItem(p *Player, t ItemType) {
	def, ok := itemDefs[t]
	if !ok {
		return
	}
	if def.Heal > 0 {
		p.HP += def.Heal
		if p.HP > PlayerMaxHP {
			p.HP = PlayerMaxHP
		}
	}
	if def.Shield > 0 && def.Shield > p.ShieldT {
		p.ShieldT = def.Shield
	}
	if def.Recharge > 0 {
		p.Ready += def.Recharge
	}
	if def.Score > 0 {
		p.Score += def.Score
	}
	p.ItemsUsed++
}
